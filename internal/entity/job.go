package entity

import (
	"time"
)

type JobStatus string

const (
	StatusProcessing JobStatus = "processing"
	StatusComplete   JobStatus = "complete"
	StatusError      JobStatus = "error"
)

// Progress checkpoints written by the orchestrator at each stage boundary.
const (
	ProgressFailed        = 0
	ProgressCreated       = 10
	ProgressAuthenticated = 20
	ProgressMediaAnalyzed = 40
	ProgressVerified      = 70
	ProgressParsed        = 80
	ProgressComplete      = 100
)

// AnalysisInput is what the caller submitted. At least one of Claim or MediaURL is set.
type AnalysisInput struct {
	Claim    string `json:"claim,omitempty"`
	MediaURL string `json:"mediaUrl,omitempty"`
	Platform string `json:"platform,omitempty"`
}

type Job struct {
	ID        string         `json:"id"`
	Status    JobStatus      `json:"status"`
	Progress  int            `json:"progress"`
	Input     AnalysisInput  `json:"input"`
	Result    *VerdictResult `json:"result,omitempty"`
	Error     *string        `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

func (j *Job) IsTerminal() bool {
	return j.Status == StatusComplete || j.Status == StatusError
}

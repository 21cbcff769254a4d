// Package pipeline runs one fact-check job from credentials to a stored verdict.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kaeva-factcheck/internal/entity"
	"kaeva-factcheck/internal/gemini"
	"kaeva-factcheck/internal/scoring"
	"kaeva-factcheck/internal/verdict"
)

// ErrNoCredentials is returned when no token source is configured.
var ErrNoCredentials = eris.New("credentials not configured")

type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type MediaAnalyzer interface {
	Analyze(ctx context.Context, mediaURL, platform string) *entity.MediaAnalysis
}

type TextExtractor interface {
	Extract(ctx context.Context, mediaURL string) (*entity.TextExtraction, error)
}

type ClaimVerifier interface {
	Verify(ctx context.Context, req gemini.VerifyRequest) (*entity.Verification, error)
}

// JobTracker records progress. Implemented by the job stores.
type JobTracker interface {
	UpdateProgress(ctx context.Context, id string, progress int) error
	Complete(ctx context.Context, id string, result *entity.VerdictResult) error
	Fail(ctx context.Context, id string, msg string) error
}

type Deps struct {
	Tokens     TokenSource
	Media      MediaAnalyzer
	OCR        TextExtractor
	Verifier   ClaimVerifier
	Classifier SourceClassifier
	Tracker    JobTracker
	Now        func() time.Time
}

type Orchestrator struct {
	tokens     TokenSource
	media      MediaAnalyzer
	ocr        TextExtractor
	verifier   ClaimVerifier
	classifier SourceClassifier
	tracker    JobTracker
	now        func() time.Time
}

func New(d Deps) *Orchestrator {
	o := &Orchestrator{
		tokens:     d.Tokens,
		media:      d.Media,
		ocr:        d.OCR,
		verifier:   d.Verifier,
		classifier: d.Classifier,
		tracker:    d.Tracker,
		now:        d.Now,
	}
	if o.tracker == nil {
		o.tracker = nopTracker{}
	}
	if o.now == nil {
		o.now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// Run executes the job after its record was created at progress 10. On
// success the result is stored with progress 100; any failure, including a
// panic, marks the job as error with the message verbatim.
func (o *Orchestrator) Run(ctx context.Context, jobID string, in entity.AnalysisInput) (res *entity.VerdictResult, err error) {
	log := zap.L().With(zap.String("job_id", jobID))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = eris.Errorf("pipeline: panic: %v", r)
		}
		if err != nil {
			log.Error("analysis failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
			if ferr := o.tracker.Fail(ctx, jobID, err.Error()); ferr != nil {
				log.Error("record job failure", zap.Error(ferr))
			}
		}
	}()

	res, err = o.run(ctx, jobID, in, log)
	if err != nil {
		return nil, err
	}
	if err = o.tracker.Complete(ctx, jobID, res); err != nil {
		return nil, eris.Wrap(err, "pipeline: store result")
	}
	log.Info("analysis complete",
		zap.String("verdict", string(res.Verdict)),
		zap.Float64("confidence", res.Confidence),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, jobID string, in entity.AnalysisInput, log *zap.Logger) (*entity.VerdictResult, error) {
	in.Claim = strings.TrimSpace(in.Claim)
	in.MediaURL = strings.TrimSpace(in.MediaURL)

	if o.tokens == nil {
		return nil, ErrNoCredentials
	}
	stage := time.Now()
	token, err := o.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	o.progress(ctx, jobID, entity.ProgressAuthenticated, log)
	log.Debug("stage done", zap.String("stage", "credentials"), zap.Duration("duration", time.Since(stage)))

	stage = time.Now()
	mediaResult, extraction := o.analyzeMedia(ctx, in, log)
	o.progress(ctx, jobID, entity.ProgressMediaAnalyzed, log)
	log.Debug("stage done", zap.String("stage", "media"), zap.Duration("duration", time.Since(stage)))

	claim := in.Claim
	if claim == "" && extraction != nil {
		claim = strings.TrimSpace(extraction.Text)
	}

	var verification *entity.Verification
	if claim != "" && o.verifier != nil {
		stage = time.Now()
		v, verr := o.verifier.Verify(ctx, gemini.VerifyRequest{Claim: claim, Token: token, Media: mediaResult})
		if verr != nil {
			log.Warn("claim verification unavailable", zap.Error(verr))
		} else {
			verification = v
		}
		o.progress(ctx, jobID, entity.ProgressVerified, log)
		log.Debug("stage done", zap.String("stage", "verify"), zap.Duration("duration", time.Since(stage)))
	}

	var parsed entity.ParsedVerdict
	var grounding []entity.Source
	var queries []string
	if verification != nil {
		parsed = verdict.Parse(verification.Text)
		grounding = verification.GroundingSources
		queries = verification.SearchQueries
	} else {
		parsed = verdict.Fallback("")
	}
	o.progress(ctx, jobID, entity.ProgressParsed, log)

	sources, weights := MergeSources(parsed.Sources, grounding, o.classifier)
	signals := scoring.Signals{
		Agreement:    scoring.Agreement(sources),
		Quality:      scoring.Quality(weights),
		AIConfidence: parsed.Confidence,
	}
	if mediaResult.HasScore() {
		score := *mediaResult.AuthenticityScore
		signals.MediaAuthenticity = &score
	}
	conf := scoring.Aggregate(signals)

	res := &entity.VerdictResult{
		Claim:               claim,
		Verdict:             parsed.Verdict,
		Explanation:         parsed.Explanation,
		Confidence:          conf.Score,
		ConfidenceBreakdown: conf.Breakdown,
		Recommendation:      conf.Recommendation,
		Sources:             sources,
		SearchQueries:       queries,
		MediaAnalysis:       mediaResult,
		TextExtraction:      extraction,
		AnalyzedAt:          o.now(),
	}
	if in.Claim != "" {
		original := in.Claim
		res.OriginalClaim = &original
	}
	return res, nil
}

// analyzeMedia runs authenticity analysis and OCR side by side. Either one
// failing, or panicking, leaves its result nil without affecting the other.
func (o *Orchestrator) analyzeMedia(ctx context.Context, in entity.AnalysisInput, log *zap.Logger) (*entity.MediaAnalysis, *entity.TextExtraction) {
	if in.MediaURL == "" {
		return nil, nil
	}

	var (
		mediaResult *entity.MediaAnalysis
		extraction  *entity.TextExtraction
	)
	var g errgroup.Group
	if o.media != nil {
		g.Go(func() error {
			defer recoverTo(log, "media")
			mediaResult = o.media.Analyze(ctx, in.MediaURL, in.Platform)
			return nil
		})
	}
	if o.ocr != nil {
		g.Go(func() error {
			defer recoverTo(log, "ocr")
			te, err := o.ocr.Extract(ctx, in.MediaURL)
			if err != nil {
				log.Warn("text extraction unavailable", zap.Error(err))
				return nil
			}
			extraction = te
			return nil
		})
	}
	_ = g.Wait()
	return mediaResult, extraction
}

func recoverTo(log *zap.Logger, stage string) {
	if r := recover(); r != nil {
		log.Error("stage panicked", zap.String("stage", stage), zap.String("panic", fmt.Sprint(r)))
	}
}

func (o *Orchestrator) progress(ctx context.Context, jobID string, p int, log *zap.Logger) {
	if err := o.tracker.UpdateProgress(ctx, jobID, p); err != nil {
		log.Warn("update progress", zap.Int("progress", p), zap.Error(err))
	}
}

type nopTracker struct{}

func (nopTracker) UpdateProgress(context.Context, string, int) error             { return nil }
func (nopTracker) Complete(context.Context, string, *entity.VerdictResult) error { return nil }
func (nopTracker) Fail(context.Context, string, string) error                    { return nil }

package main

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"kaeva-factcheck/internal/entity"
)

var checkInput entity.AnalysisInput

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one analysis in the foreground and print the verdict as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(checkInput.Claim) == "" && strings.TrimSpace(checkInput.MediaURL) == "" {
			return eris.New("--claim or --media is required")
		}

		// nothing is queued, so the store and queue stay in memory
		cfg.Store.Driver = "memory"
		cfg.Queue.Driver = "memory"
		cfg.Worker.Embedded = true

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.orchestrator(nil).Run(cmd.Context(), uuid.NewString(), checkInput)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkInput.Claim, "claim", "", "claim text to verify")
	checkCmd.Flags().StringVar(&checkInput.MediaURL, "media", "", "URL of an image, video or audio file")
	checkCmd.Flags().StringVar(&checkInput.Platform, "platform", "", "platform the media came from")
	rootCmd.AddCommand(checkCmd)
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spigell/resume-coach/internal/resume"
	"github.com/spigell/resume-coach/internal/store"
	"go.uber.org/zap"
)

var exportCmd = &cobra.Command{
	Use:   "export USER_ID",
	Short: "Print the current structured résumé and analysis of an applicant as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exportResume(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
}

type exportDocument struct {
	UserID            string           `json:"user_id"`
	Resume            *resume.Resume   `json:"resume"`
	Analysis          *resume.Analysis `json:"analysis"`
	CompletenessScore float64          `json:"completeness_score"`
}

func exportResume(cmd *cobra.Command, userID string) {
	logger, config := setup()

	repo := openStore(config, logger)
	defer repo.Close()

	out := io.Writer(os.Stdout)
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			logger.Fatal("creating the output file", zap.Error(err))
		}
		defer f.Close()
		out = f
	}

	if err := writeResume(context.Background(), repo, userID, out); err != nil {
		logger.Fatal("exporting the resume", zap.Error(err), zap.String("user_id", userID))
	}
}

func writeResume(ctx context.Context, resumes store.ResumeStore, userID string, w io.Writer) error {
	doc, analysis, err := resumes.GetCurrent(ctx, userID)
	if err != nil {
		return fmt.Errorf("get resume: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(exportDocument{
		UserID:            userID,
		Resume:            doc,
		Analysis:          analysis,
		CompletenessScore: doc.CompletenessScore(),
	}); err != nil {
		return fmt.Errorf("encode resume: %w", err)
	}
	return nil
}

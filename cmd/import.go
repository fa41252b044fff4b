package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spigell/resume-coach/internal/resume"
	"go.uber.org/zap"
)

var importCmd = &cobra.Command{
	Use:   "import USER_ID",
	Short: "Store a structured résumé and its analysis for an applicant",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		importResume(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("resume", "r", "", "structured résumé JSON file (required)")
	importCmd.Flags().StringP("analysis", "a", "", "résumé analysis JSON file")
	importCmd.MarkFlagRequired("resume")
}

func importResume(cmd *cobra.Command, userID string) {
	logger, config := setup()

	resumeFile, _ := cmd.Flags().GetString("resume")
	analysisFile, _ := cmd.Flags().GetString("analysis")

	doc, analysis, err := readImport(resumeFile, analysisFile)
	if err != nil {
		logger.Fatal("reading import files", zap.Error(err))
	}

	repo := openStore(config, logger)
	defer repo.Close()

	if err := repo.Put(context.Background(), userID, doc, analysis); err != nil {
		logger.Fatal("storing the resume", zap.Error(err))
	}

	logger.Info("resume imported",
		zap.String("user_id", userID),
		zap.Int("projects", len(doc.Projects)),
		zap.Int("questions", len(analysis.Questions())),
		zap.Float64("completeness", doc.CompletenessScore()),
	)
}

func readImport(resumeFile, analysisFile string) (*resume.Resume, *resume.Analysis, error) {
	data, err := os.ReadFile(resumeFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read resume file: %w", err)
	}

	doc, err := resume.Parse(string(data))
	if err != nil {
		return nil, nil, fmt.Errorf("resume file %q: %w", resumeFile, err)
	}

	if analysisFile == "" {
		return doc, nil, nil
	}

	data, err = os.ReadFile(analysisFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read analysis file: %w", err)
	}

	analysis, err := resume.ParseAnalysis(string(data))
	if err != nil {
		return nil, nil, fmt.Errorf("analysis file %q: %w", analysisFile, err)
	}

	return doc, analysis, nil
}

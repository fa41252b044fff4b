package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spigell/resume-coach/internal/coach"
	"go.uber.org/zap"
)

var interviewCmd = &cobra.Command{
	Use:   "interview USER_ID",
	Short: "Run the interview in the terminal",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		interview(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().StringP("session", "s", "", "session id to continue (a new one is generated when empty)")
}

func interview(cmd *cobra.Command, userID string) {
	ctx := context.Background()
	logger, config := setup()

	repo := openStore(config, logger)
	defer repo.Close()

	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID = strings.TrimSpace(sessionID); sessionID == "" {
		sessionID = uuid.NewString()
	}
	logger.Info("starting the interview", zap.String("session_id", sessionID), zap.String("user_id", userID))

	orchestrator := newOrchestrator(ctx, config, repo, logger)

	answer := ""
	for {
		res, err := orchestrator.Run(ctx, sessionID, userID, answer)
		var notFound *coach.ResumeNotFoundError
		if errors.As(err, &notFound) {
			logger.Fatal("no résumé on file", zap.String("hint", "run the import command first"))
		}
		if err != nil {
			logger.Fatal("session error", zap.Error(err))
		}

		fmt.Printf("\n%s\n\n", res.Response)

		if res.Completed {
			logger.Info("interview finished",
				zap.String("session_id", sessionID),
				zap.Int("answered_count", res.AnsweredCount),
			)
			return
		}

		answer, err = readAnswer(res.AnsweredCount)
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			logger.Info("interview paused", zap.String("session_id", sessionID),
				zap.String("hint", "continue with --session "+sessionID))
			return
		}
		if err != nil {
			logger.Fatal("reading the answer", zap.Error(err))
		}
	}
}

func readAnswer(answered int) (string, error) {
	prompt := promptui.Prompt{
		Label: fmt.Sprintf("Answer %d/%d", answered+1, coach.MaxQuestions),
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("answer must not be empty")
			}
			return nil
		},
	}
	return prompt.Run()
}

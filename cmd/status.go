package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var statusCmd = &cobra.Command{
	Use:   "status SESSION_ID",
	Short: "Print the counters and message log of a session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		status(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().Bool("history", false, "print the whole message log")
}

func status(cmd *cobra.Command, sessionID string) {
	logger, config := setup()
	repo := openStore(config, logger)
	defer repo.Close()

	session, err := repo.Get(context.Background(), sessionID)
	if err != nil {
		logger.Fatal("getting the session", zap.Error(err))
	}

	logger.Info("session status",
		zap.String("session_id", session.ID),
		zap.String("user_id", session.UserID),
		zap.Int("question_index", session.QuestionIndex),
		zap.Int("answered_count", session.AnsweredCount),
		zap.Bool("completed", session.Completed),
		zap.Int("messages", len(session.Messages)),
	)

	if history, _ := cmd.Flags().GetBool("history"); history {
		// do not bother error since messages are plain strings
		pretty, _ := json.MarshalIndent(session.Messages, "", "  ")
		fmt.Println(string(pretty))
	}
}

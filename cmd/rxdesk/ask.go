package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/rxdesk/orchestrator"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question",
	Long: `Routes one question through the pipeline and prints the answer.

Example:
  rxdesk ask "Should I order 1000 units of MED009? Consider budget and suppliers."`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	o, err := newOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer o.Close()

	id := sessionID
	if id == "" {
		id = newSessionID()
	}

	answer, err := o.Ask(ctx, id, strings.Join(args, " "))
	if err != nil && !errors.Is(err, orchestrator.ErrContextStore) {
		return err
	}
	if err != nil {
		logger.Sugar().Warnw("answer not saved to history", "session_id", id, "error", err)
	}

	renderAnswer(cmd.OutOrStdout(), id, answer)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/rxdesk/orchestrator"
)

var batchParallel int

var batchCmd = &cobra.Command{
	Use:   "batch [file.yaml]",
	Short: "Answer a list of questions concurrently",
	Long: `Answers every question in a YAML file, each in its own session, and prints
the answers in file order.

File format:
  questions:
    - What will be demand for Paracetamol?
    - Which supplier should I use for 1000 units of Ibuprofen?`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

type batchFile struct {
	Questions []string `yaml:"questions"`
}

func loadBatch(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	var f batchFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	if len(f.Questions) == 0 {
		return nil, fmt.Errorf("batch file %s has no questions", path)
	}
	return f.Questions, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	questions, err := loadBatch(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	o, err := newOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer o.Close()

	return batch(ctx, o, questions, batchParallel, cmd.OutOrStdout())
}

// batch answers questions with at most parallel in flight and writes the
// answers in input order.
func batch(ctx context.Context, o *orchestrator.Orchestrator, questions []string, parallel int, out io.Writer) error {
	answers := make([]*orchestrator.Answer, len(questions))
	sessions := make([]string, len(questions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, parallel))
	for i, q := range questions {
		sessions[i] = newSessionID()
		g.Go(func() error {
			a, err := o.Ask(gctx, sessions[i], q)
			if err != nil && !errors.Is(err, orchestrator.ErrContextStore) {
				return fmt.Errorf("question %d: %w", i+1, err)
			}
			answers[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, a := range answers {
		fmt.Fprintf(out, "\nQ%d: %s\n", i+1, questions[i])
		renderAnswer(out, sessions[i], a)
	}
	return nil
}

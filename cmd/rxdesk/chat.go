package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/rxdesk/archive"
	"github.com/tailored-agentic-units/rxdesk/orchestrator"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Starts a conversation in which follow-up questions may refer to earlier
answers ("what about its supplier?").

Commands: help, history, transcript, clear, ? (or commands), exit (or quit, q).`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

var examples = []struct {
	category  string
	questions []string
}{
	{"Demand Forecasting", []string{
		"What will be demand for Paracetamol next month?",
		"Which products are fast-moving vs slow-moving?",
		"Predict demand for MED001 considering seasonal trends",
	}},
	{"Inventory Management", []string{
		"What products are expiring in the next 30 days?",
		"Show me dead stock items with locked capital",
		"When should I reorder insulin?",
	}},
	{"Supplier & Ordering", []string{
		"Which supplier should I use for 1000 units of Ibuprofen?",
		"Can I afford to order 2000 units at $25 each?",
		"Compare suppliers for reliability and pricing",
	}},
	{"Pricing & Discounts", []string{
		"What discount should I offer on Vitamin C?",
		"Simulate margin impact for 15% discount on pain relievers",
		"Suggest clearance pricing for items expiring soon",
	}},
	{"Store Operations", []string{
		"Should I transfer stock between stores?",
		"Which products are overstocked in Store A?",
		"How can I prevent expiry through store transfers?",
	}},
	{"Multi-Capability Questions", []string{
		"I want to order 1000 Ibuprofen - which supplier, can I afford it, what price?",
		"Show me overstocked Vitamin C expiring in 20 days - transfer or discount?",
		"Analyze prescription trends and recommend targeted stocking",
	}},
}

func runChat(cmd *cobra.Command, args []string) error {
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
	return chat(ctx, o, id, cmd.InOrStdin(), cmd.OutOrStdout())
}

// chat runs the read-answer loop until exit, end of input or cancellation.
func chat(ctx context.Context, o *orchestrator.Orchestrator, id string, in io.Reader, out io.Writer) error {
	printBanner(out)

	started := time.Now()
	asked := 0
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit", "q":
			fmt.Fprintf(out, "\nSession summary: %d questions answered in %s\nGoodbye!\n",
				asked, time.Since(started).Round(time.Second))
			return nil
		case "help":
			printExamples(out)
			continue
		case "?", "commands":
			printCommands(out)
			continue
		case "history":
			history, err := o.History(ctx, id)
			if err != nil {
				fmt.Fprintf(out, "Could not load history: %v\n", err)
				continue
			}
			renderHistory(out, history)
			continue
		case "transcript":
			transcript, err := o.Transcript(ctx, id)
			if err != nil && !errors.Is(err, archive.ErrSessionNotFound) {
				fmt.Fprintf(out, "Could not load transcript: %v\n", err)
				continue
			}
			renderHistory(out, transcript)
			continue
		case "clear":
			if err := o.Clear(ctx, id); err != nil {
				fmt.Fprintf(out, "Could not clear history: %v\n", err)
				continue
			}
			asked = 0
			fmt.Fprintln(out, "Conversation history cleared.")
			continue
		}

		answer, err := o.Ask(ctx, id, input)
		if err != nil && !errors.Is(err, orchestrator.ErrContextStore) {
			fmt.Fprintf(out, "Error processing question: %v\nPlease try rephrasing your question or type 'help' for examples.\n", err)
			continue
		}
		if err != nil {
			logger.Sugar().Warnw("answer not saved to history", "session_id", id, "error", err)
		}
		asked++
		renderAnswer(out, id, answer)
	}
}

func printBanner(out io.Writer) {
	fmt.Fprintf(out, "%s\nrxdesk - pharmacy operations question desk\n%s\n", rule, rule)
	fmt.Fprintln(out, "Ask questions in natural language; follow-ups may refer to earlier answers.")
	fmt.Fprintln(out, "Type 'help' for examples, '?' for commands, 'exit' to leave.")
	fmt.Fprintln(out)
}

func printExamples(out io.Writer) {
	fmt.Fprintln(out, "\nEXAMPLE QUESTIONS:")
	for _, ex := range examples {
		fmt.Fprintf(out, "\n* %s:\n", ex.category)
		for _, q := range ex.questions {
			fmt.Fprintf(out, "  - %s\n", q)
		}
	}
	fmt.Fprintln(out)
}

func printCommands(out io.Writer) {
	fmt.Fprintln(out, "\nAvailable commands:")
	fmt.Fprintln(out, "  help        - Show example questions")
	fmt.Fprintln(out, "  history     - View conversation history")
	fmt.Fprintln(out, "  transcript  - View every archived exchange of the session")
	fmt.Fprintln(out, "  clear       - Clear conversation history")
	fmt.Fprintln(out, "  exit        - Exit the program")
	fmt.Fprintln(out)
}

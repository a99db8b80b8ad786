package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
	"github.com/tailored-agentic-units/rxdesk/orchestrator"
)

var rule = strings.Repeat("=", 80)

func renderAnswer(w io.Writer, sessionID string, a *orchestrator.Answer) {
	consulted := make([]string, 0, len(a.Results))
	for _, r := range a.Results {
		mark := "ok"
		if !r.OK() {
			mark = string(r.Status)
		}
		consulted = append(consulted, fmt.Sprintf("%s (%s)", r.Capability.Title(), mark))
	}
	if len(consulted) == 0 {
		consulted = append(consulted, "none")
	}

	fmt.Fprintf(w, "\n%s\nANSWER\n%s\n\n%s\n\n", rule, rule, a.Text)
	fmt.Fprintf(w, "%s\nCONSULTATION DETAILS\n%s\n", rule, rule)
	fmt.Fprintf(w, "Consulted:     %s\n", strings.Join(consulted, ", "))
	fmt.Fprintf(w, "Question type: %s (%s)\n", a.Intent.Shape, a.Intent.Source)
	fmt.Fprintf(w, "Session:       %s\n", sessionID)
	fmt.Fprintf(w, "Elapsed:       %s\n%s\n", a.Elapsed.Round(time.Millisecond), rule)
}

func renderHistory(w io.Writer, history []protocol.Exchange) {
	if len(history) == 0 {
		fmt.Fprintln(w, "\nNo conversation history yet.")
		return
	}
	fmt.Fprintln(w, "\nCONVERSATION HISTORY:")
	for i, ex := range history {
		fmt.Fprintf(w, "\n[%s] Question #%d:\n  %s\n", ex.Timestamp.Format(time.TimeOnly), i+1, ex.Question)
		fmt.Fprintf(w, "  -> Consulted: %s\n", protocol.JoinCapabilities(ex.Results.Capabilities()))
	}
	fmt.Fprintln(w)
}

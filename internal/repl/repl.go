// Package repl drives the interactive question loop on a terminal.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"golang.org/x/term"

	"github.com/sumoql/sumoql/internal/config"
	"github.com/sumoql/sumoql/internal/db"
	"github.com/sumoql/sumoql/internal/pipeline"
	"github.com/sumoql/sumoql/internal/schema"
)

// asker is the slice of pipeline.Pipeline the loop needs.
type asker interface {
	Ask(ctx context.Context, question string) (pipeline.Answer, error)
}

var exampleQuestions = []string{
	"How many matches are in the dataset?",
	"Which bot won the most matches?",
	"What is the most common action?",
	"Show the average match duration per winning bot.",
}

type REPL struct {
	pipe asker
	conn db.DB
	cfg  config.Config
	in   io.Reader
	out  io.Writer

	// ShowSQL echoes the generated statement before the answer.
	ShowSQL bool
	// ShowTimings appends per-stage durations to each answer.
	ShowTimings bool
}

func New(pipe *pipeline.Pipeline, conn db.DB, cfg config.Config, in io.Reader, out io.Writer) *REPL {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &REPL{
		pipe:        pipe,
		conn:        conn,
		cfg:         cfg,
		in:          in,
		out:         out,
		ShowSQL:     true,
		ShowTimings: true,
	}
}

// interactive reports whether the loop talks to a human on a terminal.
func (r *REPL) interactive() bool {
	f, ok := r.in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Banner prints the connection summary, table counts and example questions.
func (r *REPL) Banner(ctx context.Context) {
	title := pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Sumobot Natural Query Interface")

	lines := []string{
		fmt.Sprintf("Database: %s (%s)", r.cfg.Database.DSN, r.conn.Dialect()),
		fmt.Sprintf("SQL model: %s", r.cfg.Model.Model),
	}
	if r.cfg.Model.AnswerModel != "" && r.cfg.Model.AnswerModel != r.cfg.Model.Model {
		lines = append(lines, fmt.Sprintf("Answer model: %s", r.cfg.Model.AnswerModel))
	}
	if counts := r.tableSummary(ctx); counts != "" {
		lines = append(lines, "", counts)
	}
	box := pterm.DefaultBox.WithTitle(title).WithPadding(1).Sprint(strings.Join(lines, "\n"))
	fmt.Fprintln(r.out, box)

	fmt.Fprintln(r.out, "Example questions:")
	for _, q := range exampleQuestions {
		fmt.Fprintf(r.out, "  • %s\n", q)
	}
	fmt.Fprintln(r.out, "Type 'exit' to quit.")
	fmt.Fprintln(r.out)
}

func (r *REPL) tableSummary(ctx context.Context) string {
	counts, err := schema.TableCounts(ctx, r.conn)
	if err != nil || len(counts) == 0 {
		return ""
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		if counts[name] < 0 {
			parts = append(parts, fmt.Sprintf("%s: ?", name))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d rows", name, counts[name]))
	}
	return "Tables: " + strings.Join(parts, ", ")
}

// Run blocks reading questions until exit, EOF or context cancellation.
// Every per-question failure is displayed and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	r.Banner(ctx)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	prompt := r.interactive()
	for {
		if prompt {
			fmt.Fprint(r.out, "ask> ")
		}
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out, "\nOperation cancelled.")
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(r.out)
				if err := <-scanErr; err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				return nil
			}
			question := strings.TrimSpace(line)
			if question == "" {
				continue
			}
			if isExit(question) {
				fmt.Fprintln(r.out, "Goodbye.")
				return nil
			}
			r.answer(ctx, question)
		}
	}
}

func isExit(input string) bool {
	switch strings.ToLower(input) {
	case "exit", "quit", "q":
		return true
	}
	return false
}

func (r *REPL) answer(ctx context.Context, question string) {
	var spinner *pterm.SpinnerPrinter
	if r.interactive() {
		spinner, _ = pterm.DefaultSpinner.Start("Thinking...")
	}
	answer, err := r.pipe.Ask(ctx, question)
	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n\n", err)
		return
	}

	if r.ShowSQL && answer.SQL != "" {
		fmt.Fprintf(r.out, "%s\n", pterm.NewStyle(pterm.FgGray).Sprint("SQL: "+answer.SQL))
	}

	text := answer.Text
	switch {
	case answer.Blocked:
		text = pterm.NewStyle(pterm.FgYellow).Sprint(text)
	case answer.Failed:
		text = pterm.NewStyle(pterm.FgRed).Sprint(text)
	}
	fmt.Fprintln(r.out, text)

	if r.ShowTimings {
		fmt.Fprintln(r.out, pterm.NewStyle(pterm.FgGray).Sprint(formatTimings(answer.Timings)))
	}
	fmt.Fprintln(r.out)
}

func formatTimings(t pipeline.Timings) string {
	return fmt.Sprintf("(generate %s, execute %s, answer %s, total %s)",
		round(t.Generate), round(t.Execute), round(t.Answer), round(t.Total))
}

func round(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

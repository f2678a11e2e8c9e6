// Package pipeline orchestrates the text -> SQL -> result -> text round
// trip: schema introspection, prompt construction, SQL extraction, the
// read-only gate, execution and answer composition.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sumoql/sumoql/internal/db"
	"github.com/sumoql/sumoql/internal/llm"
	"github.com/sumoql/sumoql/internal/print"
	"github.com/sumoql/sumoql/internal/schema"
	"github.com/sumoql/sumoql/internal/sqlexec"
)

// DefaultResultRows caps how many rows of the raw result are serialized into
// the answer prompt.
const DefaultResultRows = 50

type Pipeline struct {
	conn         db.DB
	sqlClient    llm.Client
	answerClient llm.Client
	logger       *slog.Logger
	readOnly     bool
	resultRows   int
}

type Options struct {
	// ReadOnly keeps the keyword allow-list gate enabled.
	ReadOnly bool
	// ResultRows overrides DefaultResultRows when positive.
	ResultRows int
}

// Timings records per-stage durations for display in the REPL.
type Timings struct {
	Generate time.Duration
	Execute  time.Duration
	Answer   time.Duration
	Total    time.Duration
}

// Answer is the outcome of one question. Recoverable failures (model error,
// rejected statement, execution error) land in Text as a displayable message
// rather than an error return; only infrastructure failures such as a broken
// introspection query surface as errors.
type Answer struct {
	Question string
	SQL      string
	Result   *db.Rows
	Text     string
	Blocked  bool
	Failed   bool
	Timings  Timings
}

func New(conn db.DB, sqlClient, answerClient llm.Client, logger *slog.Logger, opts Options) *Pipeline {
	if answerClient == nil {
		answerClient = sqlClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	resultRows := opts.ResultRows
	if resultRows <= 0 {
		resultRows = DefaultResultRows
	}
	return &Pipeline{
		conn:         conn,
		sqlClient:    sqlClient,
		answerClient: answerClient,
		logger:       logger,
		readOnly:     opts.ReadOnly,
		resultRows:   resultRows,
	}
}

// Ask runs the full round trip for one question.
func (p *Pipeline) Ask(ctx context.Context, question string) (Answer, error) {
	answer := Answer{Question: question}
	totalStart := time.Now()

	schemaText, err := schema.Render(ctx, p.conn)
	if err != nil {
		return answer, fmt.Errorf("render schema: %w", err)
	}

	prompt := llm.BuildSQLPrompt(p.sqlClient.Model(), p.conn.Dialect(), schemaText, question)

	genStart := time.Now()
	raw, err := p.sqlClient.Complete(ctx, prompt)
	answer.Timings.Generate = time.Since(genStart)
	if err != nil {
		answer.Failed = true
		answer.Text = fmt.Sprintf("Error communicating with the model: %v\nEnsure the model endpoint is running and %q is available.", err, p.sqlClient.Model())
		answer.Timings.Total = time.Since(totalStart)
		return answer, nil
	}

	sqlQuery := sqlexec.Extract(raw)
	if llm.IsCompletionModel(p.sqlClient.Model()) {
		sqlQuery = sqlexec.EnsureSelect(sqlQuery)
	}
	answer.SQL = sqlQuery
	p.logger.Debug("generated sql", "sql", sqlQuery, "duration", answer.Timings.Generate)

	if sqlQuery == "" {
		answer.Failed = true
		answer.Text = fmt.Sprintf("Error: model returned an empty SQL query. Raw response: %.200q", raw)
		answer.Timings.Total = time.Since(totalStart)
		return answer, nil
	}

	if p.readOnly && !sqlexec.IsReadOnly(sqlQuery) {
		answer.Blocked = true
		answer.Failed = true
		answer.Text = fmt.Sprintf("Blocked a non-read-only query for safety.\nGenerated query was: %s", sqlQuery)
		answer.Timings.Total = time.Since(totalStart)
		return answer, nil
	}

	execStart := time.Now()
	rows, err := sqlexec.Execute(ctx, p.conn, sqlQuery)
	answer.Timings.Execute = time.Since(execStart)
	if err != nil {
		answer.Failed = true
		answer.Text = fmt.Sprintf("Error executing SQL: %v\nGenerated query was: %s", err, sqlQuery)
		answer.Timings.Total = time.Since(totalStart)
		return answer, nil
	}
	answer.Result = rows
	p.logger.Debug("executed sql", "rows", len(rows.Data), "duration", answer.Timings.Execute)

	resultText := print.ResultText(rows, p.resultRows)
	answerPrompt := llm.BuildAnswerPrompt(question, sqlQuery, resultText)

	answerStart := time.Now()
	text, err := p.answerClient.Complete(ctx, answerPrompt)
	answer.Timings.Answer = time.Since(answerStart)
	answer.Timings.Total = time.Since(totalStart)
	if err != nil {
		answer.Failed = true
		answer.Text = fmt.Sprintf("Error composing the answer: %v", err)
		return answer, nil
	}

	answer.Text = strings.TrimSpace(text)
	return answer, nil
}

// RunSQL executes a user-supplied statement through the same gate as
// generated SQL, skipping both model calls.
func (p *Pipeline) RunSQL(ctx context.Context, sqlQuery string) (*db.Rows, error) {
	sqlQuery = strings.TrimSpace(sqlQuery)
	if p.readOnly && !sqlexec.IsReadOnly(sqlQuery) {
		return nil, fmt.Errorf("blocked a non-read-only query for safety: %s", sqlQuery)
	}
	return sqlexec.Execute(ctx, p.conn, sqlQuery)
}

package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sumoql/sumoql/internal/db/sqlite"
	"github.com/sumoql/sumoql/internal/pipeline"
)

type scriptedClient struct {
	model     string
	responses []string
	calls     int
}

func (s *scriptedClient) Model() string               { return s.model }
func (s *scriptedClient) Check(context.Context) error { return nil }

func (s *scriptedClient) Complete(_ context.Context, _ string) (string, error) {
	if s.calls >= len(s.responses) {
		return "", nil
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

func newTestServer(t *testing.T, client *scriptedClient) *httptest.Server {
	t.Helper()
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	ctx := context.Background()
	stmts := []string{
		"CREATE TABLE bots (bot_id INTEGER PRIMARY KEY, name TEXT NOT NULL)",
		"INSERT INTO bots (bot_id, name) VALUES (1, 'Bot_01'), (2, 'Bot_02')",
	}
	for _, stmt := range stmts {
		if err := conn.Exec(ctx, stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	pipe := pipeline.New(conn, client, nil, nil, pipeline.Options{ReadOnly: true})
	srv := httptest.NewServer(New(conn, pipe, nil).Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandleAsk(t *testing.T) {
	client := &scriptedClient{
		model: "gemma3:4b",
		responses: []string{
			"SELECT name FROM bots ORDER BY bot_id",
			"The bots are Bot_01 and Bot_02.",
		},
	}
	srv := newTestServer(t, client)

	resp := postJSON(t, srv.URL+"/ask", `{"question":"list the bots"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body askResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Answer != "The bots are Bot_01 and Bot_02." {
		t.Errorf("Answer = %q", body.Answer)
	}
	if body.SQL != "SELECT name FROM bots ORDER BY bot_id" {
		t.Errorf("SQL = %q", body.SQL)
	}
	if len(body.Rows) != 2 {
		t.Errorf("Rows = %v", body.Rows)
	}
}

func TestHandleAskRejectsEmptyQuestion(t *testing.T) {
	srv := newTestServer(t, &scriptedClient{model: "gemma3:4b"})

	resp := postJSON(t, srv.URL+"/ask", `{"question":"  "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleQuery(t *testing.T) {
	srv := newTestServer(t, &scriptedClient{model: "gemma3:4b"})

	resp := postJSON(t, srv.URL+"/query", `{"query":"SELECT name FROM bots ORDER BY bot_id","limit":1}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 || !body.More {
		t.Errorf("Count = %d, More = %v", body.Count, body.More)
	}
}

func TestHandleQueryBlocksWrites(t *testing.T) {
	srv := newTestServer(t, &scriptedClient{model: "gemma3:4b"})

	resp := postJSON(t, srv.URL+"/query", `{"query":"DELETE FROM bots"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var body queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(body.Error, "read-only") {
		t.Errorf("Error = %q", body.Error)
	}
}

func TestHandleExportCSV(t *testing.T) {
	srv := newTestServer(t, &scriptedClient{model: "gemma3:4b"})

	resp := postJSON(t, srv.URL+"/export", `{"query":"SELECT bot_id, name FROM bots ORDER BY bot_id"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	want := "bot_id,name\n1,Bot_01\n2,Bot_02\n"
	if string(data) != want {
		t.Errorf("body = %q, want %q", data, want)
	}
}

func TestHandleSchema(t *testing.T) {
	srv := newTestServer(t, &scriptedClient{model: "gemma3:4b"})

	resp, err := http.Get(srv.URL + "/schema")
	if err != nil {
		t.Fatalf("GET /schema: %v", err)
	}
	defer resp.Body.Close()

	var body schemaResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Dialect != "SQLite" {
		t.Errorf("Dialect = %q", body.Dialect)
	}
	if !strings.Contains(body.Schema, "Table bots") {
		t.Errorf("Schema = %q", body.Schema)
	}
}

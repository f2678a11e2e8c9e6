package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sumoql/sumoql/internal/config"
)

func TestNewClientsFailsOnUnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	cfg := config.Default().Model
	cfg.BaseURL = srv.URL

	if _, _, err := newClients(context.Background(), cfg); err == nil {
		t.Fatal("newClients() should fail when the model endpoint is down")
	}
}

func TestNewClientsFailsOnEndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "loading", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := config.Default().Model
	cfg.BaseURL = srv.URL

	_, _, err := newClients(context.Background(), cfg)
	if err == nil {
		t.Fatal("newClients() should fail on a non-200 version response")
	}
	if !strings.Contains(err.Error(), "model endpoint check failed") {
		t.Errorf("err = %v", err)
	}
}

func TestNewClientsHealthyEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/version" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"version":"0.6.0"}`))
	}))
	defer srv.Close()

	cfg := config.Default().Model
	cfg.BaseURL = srv.URL

	sqlClient, answerClient, err := newClients(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newClients() error = %v", err)
	}
	if sqlClient != answerClient {
		t.Error("without an answer model both roles should share one client")
	}
}

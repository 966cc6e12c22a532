package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/fkarsten/wortkiste/internal/card"
	"codeberg.org/fkarsten/wortkiste/internal/cli"
	"codeberg.org/fkarsten/wortkiste/internal/enrich"
	"codeberg.org/fkarsten/wortkiste/internal/processor"
)

type mockPipeline struct {
	audioDir    string
	generateErr error
	written     []card.Card
	writeErr    error
	regenCard   *card.Card
	regenErr    error
}

func (m *mockPipeline) Generate(ctx context.Context, terms []string, progress processor.Progress) ([]card.Card, error) {
	if m.generateErr != nil {
		return nil, m.generateErr
	}

	cards := make([]card.Card, 0, len(terms))
	for i, term := range terms {
		if progress != nil {
			progress(i+1, len(terms), term)
		}
		cards = append(cards, card.Card{
			ID:           i,
			SourceText:   term,
			Translations: []string{"translation"},
			Kind:         enrich.KindWord,
		})
	}
	return cards, nil
}

func (m *mockPipeline) Regenerate(ctx context.Context, term string, id int) (*card.Card, error) {
	if m.regenErr != nil {
		return nil, m.regenErr
	}
	if m.regenCard != nil {
		return m.regenCard, nil
	}
	return &card.Card{ID: id, SourceText: term, Kind: enrich.KindWord}, nil
}

func (m *mockPipeline) WriteOutputs(cards []card.Card, out processor.Outputs) error {
	m.written = cards
	return m.writeErr
}

func (m *mockPipeline) AudioDir() string {
	return m.audioDir
}

func newTestServer(t *testing.T) (*Server, *mockPipeline) {
	t.Helper()

	pipeline := &mockPipeline{audioDir: t.TempDir()}
	flags := cli.NewFlags()
	flags.OutputDir = t.TempDir()

	return New(pipeline, flags, nil), pipeline
}

func TestHandleGenerateStreamsEvents(t *testing.T) {
	srv, pipeline := newTestServer(t)

	body, _ := json.Marshal(map[string][]string{"words": {"Tisch", "Lampe"}})
	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("Expected NDJSON content type, got %s", ct)
	}

	var progressCount int
	var result map[string]interface{}
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		var ev map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("Invalid event line: %v", err)
		}
		switch ev["type"] {
		case "progress":
			progressCount++
		case "result":
			result = ev
		case "error":
			t.Fatalf("Unexpected error event: %v", ev["message"])
		}
	}

	if progressCount != 2 {
		t.Errorf("Expected 2 progress events, got %d", progressCount)
	}
	if result == nil {
		t.Fatal("Expected a result event")
	}
	if count, _ := result["count"].(float64); count != 2 {
		t.Errorf("Expected result count 2, got %v", result["count"])
	}
	if len(pipeline.written) != 2 {
		t.Errorf("Expected outputs written for 2 cards, got %d", len(pipeline.written))
	}
}

func TestHandleGenerateNormalizesTerms(t *testing.T) {
	srv, pipeline := newTestServer(t)

	body := `{"words": ["  Tisch  ", "", "   ", "Lampe"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if len(pipeline.written) != 2 {
		t.Fatalf("Expected 2 cards after normalization, got %d", len(pipeline.written))
	}
	if pipeline.written[0].SourceText != "Tisch" {
		t.Errorf("Expected trimmed term 'Tisch', got %q", pipeline.written[0].SourceText)
	}
}

func TestHandleGenerateRejectsBadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, "{not json", http.StatusBadRequest},
		{"empty words", http.MethodPost, `{"words": []}`, http.StatusBadRequest},
		{"blank words", http.MethodPost, `{"words": ["  ", ""]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/generate", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestHandleGenerateBusy(t *testing.T) {
	srv, pipeline := newTestServer(t)
	pipeline.generateErr = processor.ErrBatchInProgress

	body := `{"words": ["Tisch"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	// The stream has already started, so the conflict arrives as an
	// error event rather than a status code
	var ev map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(rec.Body.Bytes()), &ev); err != nil {
		t.Fatalf("Expected a single error event, got %q", rec.Body.String())
	}
	if ev["type"] != "error" {
		t.Errorf("Expected error event, got %v", ev["type"])
	}
}

func TestHandleRegenerate(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"term": "Tisch", "id": 3}`
	req := httptest.NewRequest(http.MethodPost, "/api/regenerate", strings.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var c card.Card
	if err := json.NewDecoder(rec.Body).Decode(&c); err != nil {
		t.Fatalf("Failed to decode card: %v", err)
	}
	if c.ID != 3 {
		t.Errorf("Expected card ID 3, got %d", c.ID)
	}
	if c.SourceText != "Tisch" {
		t.Errorf("Expected source 'Tisch', got %s", c.SourceText)
	}
}

func TestHandleRegenerateErrors(t *testing.T) {
	srv, pipeline := newTestServer(t)

	// Missing term
	req := httptest.NewRequest(http.MethodPost, "/api/regenerate", strings.NewReader(`{"id": 1}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing term, got %d", rec.Code)
	}

	// Busy pipeline maps to 409
	pipeline.regenErr = processor.ErrBatchInProgress
	req = httptest.NewRequest(http.MethodPost, "/api/regenerate", strings.NewReader(`{"term": "Tisch"}`))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409 when busy, got %d", rec.Code)
	}

	// Other failures map to 500
	pipeline.regenErr = errors.New("analysis failed")
	req = httptest.NewRequest(http.MethodPost, "/api/regenerate", strings.NewReader(`{"term": "Tisch"}`))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
}

func TestHandleDownload(t *testing.T) {
	srv, _ := newTestServer(t)

	// Nothing generated yet
	req := httptest.NewRequest(http.MethodGet, "/api/download", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 before generation, got %d", rec.Code)
	}

	if err := os.WriteFile(srv.packagePath, []byte("fake apkg"), 0644); err != nil {
		t.Fatalf("Failed to write package file: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/download", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "german-vocabulary.apkg") {
		t.Errorf("Expected download filename in Content-Disposition, got %s", cd)
	}
	if rec.Body.String() != "fake apkg" {
		t.Error("Expected package file contents in response")
	}
}

func TestHandleAudioFiles(t *testing.T) {
	srv, pipeline := newTestServer(t)

	audioFile := filepath.Join(pipeline.audioDir, "tisch_pronunciation.mp3")
	if err := os.WriteFile(audioFile, []byte("fake mp3"), 0644); err != nil {
		t.Fatalf("Failed to write audio file: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audio/tisch_pronunciation.mp3", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != "fake mp3" {
		t.Error("Expected audio file contents in response")
	}
}

func TestCORSHeaders(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/generate", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204 for preflight, got %d", rec.Code)
	}
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("Expected wildcard CORS origin, got %s", origin)
	}
}

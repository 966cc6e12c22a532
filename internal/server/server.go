// Package server exposes the card generation pipeline over HTTP. The
// generate endpoint streams newline-delimited JSON progress events so a
// client can show per-term status during a long batch.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"codeberg.org/fkarsten/wortkiste/internal/card"
	"codeberg.org/fkarsten/wortkiste/internal/cli"
	"codeberg.org/fkarsten/wortkiste/internal/input"
	"codeberg.org/fkarsten/wortkiste/internal/processor"
)

// Pipeline is the part of the processor the server drives
type Pipeline interface {
	Generate(ctx context.Context, terms []string, progress processor.Progress) ([]card.Card, error)
	Regenerate(ctx context.Context, term string, id int) (*card.Card, error)
	WriteOutputs(cards []card.Card, out processor.Outputs) error
	AudioDir() string
}

// Server wraps the processing pipeline as an HTTP service
type Server struct {
	proc  Pipeline
	flags *cli.Flags
	log   *logrus.Logger

	exportPath  string
	packagePath string
}

// New creates a server around the given pipeline
func New(proc Pipeline, flags *cli.Flags, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}

	outputDir := flags.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	return &Server{
		proc:        proc,
		flags:       flags,
		log:         log,
		exportPath:  filepath.Join(outputDir, flags.ExportFile),
		packagePath: filepath.Join(outputDir, flags.PackageFile),
	}
}

// generateRequest is the body of POST /api/generate
type generateRequest struct {
	Words []string `json:"words"`
}

// regenerateRequest is the body of POST /api/regenerate
type regenerateRequest struct {
	Term string `json:"term"`
	ID   int    `json:"id"`
}

// event is one line of the NDJSON response stream
type event struct {
	Type    string      `json:"type"`
	Index   int         `json:"index,omitempty"`
	Total   int         `json:"total,omitempty"`
	Term    string      `json:"term,omitempty"`
	Count   int         `json:"count,omitempty"`
	Cards   []card.Card `json:"cards,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Handler returns the HTTP handler for all API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/api/regenerate", s.handleRegenerate)
	mux.HandleFunc("/api/download", s.handleDownload)
	mux.Handle("/api/audio/", http.StripPrefix("/api/audio/", http.FileServer(http.Dir(s.proc.AudioDir()))))

	return s.withCORS(mux)
}

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	terms := input.Normalize(req.Words)
	if len(terms) == 0 {
		http.Error(w, "no words given", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	emit := func(ev event) {
		if err := enc.Encode(ev); err != nil {
			s.log.WithError(err).Debug("Client went away during stream")
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	// Progress events come from the processing goroutine; funnel them
	// through a channel so only this handler writes to the response.
	events := make(chan event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			emit(ev)
		}
	}()

	cards, err := s.proc.Generate(r.Context(), terms, func(index, total int, term string) {
		events <- event{Type: "progress", Index: index, Total: total, Term: term}
	})
	close(events)
	<-done

	if err != nil {
		switch {
		case errors.Is(err, processor.ErrBatchInProgress):
			emit(event{Type: "error", Message: err.Error()})
		case errors.Is(err, context.Canceled):
			s.log.Info("Generation cancelled by client")
		default:
			s.log.WithError(err).Error("Generation failed")
			emit(event{Type: "error", Message: err.Error()})
		}
		return
	}

	if err := s.proc.WriteOutputs(cards, processor.Outputs{
		ExportPath:  s.exportPath,
		PackagePath: s.packagePath,
		DeckName:    s.flags.DeckName,
		AudioDir:    s.proc.AudioDir(),
	}); err != nil {
		s.log.WithError(err).Error("Failed to write outputs")
		emit(event{Type: "error", Message: err.Error()})
		return
	}

	emit(event{Type: "result", Count: len(cards), Cards: cards})
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req regenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Term == "" {
		http.Error(w, "no term given", http.StatusBadRequest)
		return
	}

	c, err := s.proc.Regenerate(r.Context(), req.Term, req.ID)
	if err != nil {
		if errors.Is(err, processor.ErrBatchInProgress) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		s.log.WithField("term", req.Term).WithError(err).Error("Regeneration failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, err := os.Stat(s.packagePath); err != nil {
		http.Error(w, "no Anki package generated yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "german-vocabulary.apkg"))
	http.ServeFile(w, r, s.packagePath)
}

// withCORS allows browser clients on other origins to use the API
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

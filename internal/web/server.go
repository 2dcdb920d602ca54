// Package web serves the dashboard: an HTML UI, an SSE stream of the action
// log and a JSON status endpoint.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/vadiminshakov/dcagent/internal/domain"
)

const actionPollInterval = 2 * time.Second

type actionReader interface {
	RecordsAfter(index uint64) ([]domain.ActionRecordEntry, error)
}

type priceReader interface {
	Latest() (domain.PriceSample, bool)
	Len() int
}

// Server exposes HTTP endpoints serving the HTML UI and an SSE stream.
type Server struct {
	Addr    string
	Actions actionReader
	Prices  priceReader
}

// NewServer creates a new dashboard server. prices may be nil when the caller
// has no price history to expose.
func NewServer(addr string, actions actionReader, prices priceReader) *Server {
	return &Server{Addr: addr, Actions: actions, Prices: prices}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the route mux, exposed separately for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/actions/stream", s.handleActionStream)
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

type statusResponse struct {
	Time        time.Time `json:"time"`
	Price       string    `json:"price,omitempty"`
	PriceSource string    `json:"price_source,omitempty"`
	PriceTime   time.Time `json:"price_time,omitempty"`
	Samples     int       `json:"samples"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Time: time.Now()}
	if s.Prices != nil {
		resp.Samples = s.Prices.Len()
		if sample, ok := s.Prices.Latest(); ok {
			resp.Price = sample.Price.StringFixed(2)
			resp.PriceSource = sample.Source
			resp.PriceTime = sample.Time
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("status encode: %v", err)
	}
}

func (s *Server) handleActionStream(w http.ResponseWriter, r *http.Request) {
	if s.Actions == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "action store not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// comment heartbeat every 30s so proxies keep the connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(actionPollInterval)
	defer pollTicker.Stop()

	lastIndex := uint64(0)
	sendActions := func() error {
		entries, err := s.Actions.RecordsAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			payload, err := json.Marshal(entry.Record)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: action\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = entry.Index
		}
		return nil
	}

	if err := sendActions(); err != nil {
		http.Error(w, "failed to load action log", http.StatusInternalServerError)
		log.Printf("action stream initial load: %v", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendActions(); err != nil {
				log.Printf("action stream poll err: %v", err)
			}
		}
	}
}

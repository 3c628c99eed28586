// Package web provides the HTTP status and control server for the agent.
package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/computeforhumanity/compute-agent/internal/ledger"
	"github.com/computeforhumanity/compute-agent/internal/status"
)

// Controls is the slice of agent behavior the control endpoints drive.
// Implementations must be safe to call from HTTP handler goroutines.
type Controls interface {
	SetPaused(paused bool)
	SetHighCPUMode(on bool)
	Donate(charityID string, amount int) error
}

// Server serves the status page and control endpoints over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	controls   Controls
}

// New creates a Server that reads state from the given tracker and
// applies control requests through controls.
func New(addr string, tracker *status.Tracker, controls Controls) *Server {
	s := &Server{tracker: tracker, controls: controls}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/pause", s.handlePause)
	mux.HandleFunc("/resume", s.handleResume)
	mux.HandleFunc("/highcpu", s.handleHighCPU)
	mux.HandleFunc("/donate", s.handleDonate)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.controls.SetPaused(true)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.controls.SetPaused(false)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleHighCPU(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	on, err := strconv.ParseBool(r.FormValue("on"))
	if err != nil {
		http.Error(w, "on must be true or false", http.StatusBadRequest)
		return
	}
	s.controls.SetHighCPUMode(on)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDonate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	charity := r.FormValue("charity")
	if charity == "" {
		http.Error(w, "charity is required", http.StatusBadRequest)
		return
	}
	amount, err := strconv.Atoi(r.FormValue("amount"))
	if err != nil || amount <= 0 {
		http.Error(w, "amount must be a positive integer", http.StatusBadRequest)
		return
	}
	if err := s.controls.Donate(charity, amount); err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/umputun/rssalert/pkg/locker"
	"github.com/umputun/rssalert/pkg/scheduler"
)

// statusResponse is the summary of the latest run
type statusResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Time      time.Time `json:"time"`
	LastRun   time.Time `json:"last_run"`
	LastError string    `json:"last_error,omitempty"`
	Runs      int       `json:"runs"`
	Skipped   int       `json:"skipped"`
	Feeds     int       `json:"feeds"`
}

// statusHandler returns server and scheduler status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, r, http.StatusOK, s.status())
}

// feedsHandler returns the latest result of every processed feed, ordered by feed key
func (s *Server) feedsHandler(w http.ResponseWriter, r *http.Request) {
	st := s.scheduler.Status()
	res := make([]scheduler.Result, 0, len(st.Feeds))
	for _, v := range st.Feeds {
		res = append(res, v)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Feed < res[j].Feed })
	renderJSON(w, r, http.StatusOK, res)
}

// runHandler runs all feeds right away and waits for completion
func (s *Server) runHandler(w http.ResponseWriter, r *http.Request) {
	err := s.scheduler.RunOnce(r.Context())
	switch {
	case errors.Is(err, locker.ErrNotAcquired):
		renderError(w, r, err, http.StatusConflict)
		return
	case err != nil:
		log.Printf("[ERROR] on-demand run failed: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, s.status())
}

func (s *Server) status() statusResponse {
	st := s.scheduler.Status()
	return statusResponse{
		Status:    "ok",
		Version:   s.version,
		Time:      time.Now().UTC(),
		LastRun:   st.LastRun,
		LastError: st.LastError,
		Runs:      st.Runs,
		Skipped:   st.Skipped,
		Feeds:     st.FeedsTotal,
	}
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderError sends error response as JSON
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, map[string]string{"error": errMsg})
}

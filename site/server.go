// Package site serves the import pipeline over HTTP.
package site

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"course-importer/gateway"
	"course-importer/model"
	"course-importer/pipeline"
	"course-importer/scraper"
	"course-importer/validate"
)

const maxPayload = 16 << 20

// Server converts posted provider payloads into canonical schedules.
type Server struct {
	// Merge joins adjacent course records before responding.
	Merge bool
	// Season is the default HNVCC time table when the request names none.
	Season string
	// Open returns the gateway a request persists into. Nil keeps results in memory only.
	Open func(provider string) (gateway.Gateway, func() error, error)
}

// ImportResponse is the body of a successful import.
type ImportResponse struct {
	Provider string         `json:"provider"`
	Parsed   int            `json:"parsed"`
	Merged   int            `json:"merged"`
	Schedule model.Schedule `json:"schedule"`
}

type errorResponse struct {
	Error string   `json:"error"`
	Saved []string `json:"saved,omitempty"`
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /import/{provider}", s.importHandler)
	mux.HandleFunc("GET /providers", providersHandler)
	mux.HandleFunc("GET /validators/{name}", validatorHandler)
	return mux
}

func (s *Server) importHandler(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	adapter, err := scraper.Lookup(provider)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayload))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("error reading body: %v", err)})
		return
	}

	var payload scraper.Payload
	if provider == scraper.ProviderCQU {
		payload, err = scraper.DecodeCQUEnvelope(body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	} else {
		payload.Body = body
	}
	season := r.URL.Query().Get("season")
	if season == "" {
		season = s.Season
	}
	payload.Options = map[string]string{scraper.OptionSeason: season}

	var gw gateway.Gateway = &gateway.Memory{}
	if s.Open != nil {
		opened, closeFn, err := s.Open(provider)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		defer func() {
			if cerr := closeFn(); cerr != nil {
				log.Printf("error closing gateway: %v", cerr)
			}
		}()
		gw = opened
	}

	p := &pipeline.Pipeline{Gateway: gw, Notifier: pipeline.LogNotifier{}, NoMerge: !s.Merge}
	start := time.Now()
	report, err := p.Run(r.Context(), adapter, payload)
	log.Printf("%s %s from %s in %s (err=%v)", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start), err)

	var perr *pipeline.PersistError
	switch {
	case err == nil:
	case errors.Is(err, scraper.ErrStructure):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, pipeline.ErrNoCourses):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	case errors.As(err, &perr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error(), Saved: perr.Saved})
		return
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, ImportResponse{
		Provider: report.Provider,
		Parsed:   report.Parsed,
		Merged:   report.Merged(),
		Schedule: report.Schedule,
	})
}

func providersHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, scraper.Providers())
}

// validatorHandler checks ?input= against a named validator; 422 carries the message.
func validatorHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := validate.Lookup(r.PathValue("name"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown validator"})
		return
	}
	if err := v(r.URL.Query().Get("input")); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("error writing response: %v", err)
	}
}

// Package web exposes the capture session over a small JSON control API.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dubashi.dev/session"
	"dubashi.dev/translate"
)

// Router builds the control API for one session controller.
func Router(ctrl *session.Controller) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, ctrl.Snapshot())
	})

	r.Post("/start", func(w http.ResponseWriter, req *http.Request) {
		if err := ctrl.Start(req.Context()); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ctrl.Snapshot())
	})

	r.Post("/stop", func(w http.ResponseWriter, req *http.Request) {
		if err := ctrl.Stop(); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ctrl.Snapshot())
	})

	r.Post("/reset", func(w http.ResponseWriter, req *http.Request) {
		ctrl.Reset()
		writeJSON(w, http.StatusOK, ctrl.Snapshot())
	})

	r.Post("/translate", func(w http.ResponseWriter, req *http.Request) {
		if _, err := ctrl.TranslateTranscript(req.Context()); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ctrl.Snapshot())
	})

	r.Post("/reply", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "invalid JSON body"})
			return
		}
		if _, err := ctrl.TranslateReply(req.Context(), body.Text); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ctrl.Snapshot())
	})

	r.Post("/speak", func(w http.ResponseWriter, req *http.Request) {
		if err := ctrl.SpeakReply(req.Context()); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ctrl.Snapshot())
	})

	return r
}

// Serve runs the control API until the listener fails.
func Serve(port int, ctrl *session.Controller) error {
	log.Info("http", "url", fmt.Sprintf("http://localhost:%d", port))
	return http.ListenAndServe(fmt.Sprintf(":%d", port), Router(ctrl))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps session failures onto status codes: provider outages are
// gateway errors, everything else is a conflict with the current state.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusConflict
	if errors.Is(err, translate.ErrTranslationUnavailable) {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

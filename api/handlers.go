// Package api exposes the read/trigger surface consumed by the external
// dashboard: listing loads and exports, settings management, the capability
// probe, and the scrape trigger/status pair. It never mutates the listing
// set itself.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/JamilPr1/Haraj/models"
	"github.com/JamilPr1/Haraj/services"
	"github.com/JamilPr1/Haraj/settings"
	"github.com/JamilPr1/Haraj/storage"
	"github.com/JamilPr1/Haraj/utils"
)

type Handler struct {
	runner   *services.Runner
	store    storage.Store
	settings *settings.Store
}

func NewHandler(runner *services.Runner, store storage.Store, st *settings.Store) *Handler {
	return &Handler{runner: runner, store: store, settings: st}
}

// Router builds the HTTP route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/capability", h.handleCapability).Methods(http.MethodGet)
	r.HandleFunc("/api/scrape", h.handleTrigger).Methods(http.MethodPost)
	r.HandleFunc("/api/scrape/status", h.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/listings", h.handleListings).Methods(http.MethodGet)
	r.HandleFunc("/api/listings/export", h.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", h.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/api/settings", h.handleGetSettings).Methods(http.MethodGet)
	r.HandleFunc("/api/settings", h.handlePutSettings).Methods(http.MethodPut)
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCapability re-probes the host so the dashboard can show scraping as
// unavailable instead of silently failing.
func (h *Handler) handleCapability(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.runner.Capability())
}

func (h *Handler) handleTrigger(w http.ResponseWriter, r *http.Request) {
	job, err := h.runner.Trigger(r.Context())
	if err != nil {
		if errors.Is(err, models.ErrJobAlreadyRunning) {
			writeError(w, http.StatusConflict, models.ErrorCode(err), err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, models.ErrorCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("id"); id != "" {
		job, ok := h.runner.Status(id)
		if !ok {
			writeError(w, http.StatusNotFound, "NotFound", "unknown job id")
			return
		}
		writeJSON(w, http.StatusOK, job)
		return
	}

	job, ok := h.runner.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "NotFound", "no jobs have run yet")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *Handler) handleListings(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "LoadFailure", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "LoadFailure", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="listings.csv"`)
	if _, err := utils.WriteCSV(w, snap.Listings); err != nil {
		log.Printf("⚠ csv export: %v", err)
	}
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "LoadFailure", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, utils.BuildListingStats(snap.Listings))
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Load())
}

func (h *Handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var cfg models.Settings
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "invalid JSON body: "+err.Error())
		return
	}
	if err := h.settings.Save(cfg); err != nil {
		if errors.Is(err, models.ErrSettingsValidation) {
			writeError(w, http.StatusBadRequest, models.ErrorCode(err), err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "SaveFailure", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠ write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/flowradar/flowradar/internal/radar"
)

type scanResponse struct {
	Success       bool                      `json:"success"`
	ScanID        string                    `json:"scanId"`
	Opportunities []radar.ScoredOpportunity `json:"opportunities"`
	Metadata      radar.ScanMetadata        `json:"metadata"`
}

type errorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func (s *Server) handleRadar(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settingsFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.radar.Scan(r.Context(), settings)
	if err != nil {
		var verrs *radar.ValidationErrors
		if errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		s.logger.Error("scan failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("scan failed"))
		return
	}

	writeJSON(w, http.StatusOK, scanResponse{
		Success:       true,
		ScanID:        result.ScanID,
		Opportunities: result.Opportunities,
		Metadata:      result.Metadata,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.radar.Stats())
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"presets": radar.Presets(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// settingsFromQuery builds scan settings from the configured defaults, an
// optional named preset, and individual query parameter overrides, applied in
// that order. Parameters are named in camelCase; snake_case aliases are
// accepted too.
func (s *Server) settingsFromQuery(r *http.Request) (radar.ScanSettings, error) {
	settings := s.defaults
	q := r.URL.Query()

	if name := q.Get("preset"); name != "" {
		preset, err := radar.PresetByName(name)
		if err != nil {
			return settings, err
		}
		settings = preset.Settings
	}

	if v := q.Get("sensitivity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return settings, errors.New("sensitivity must be an integer")
		}
		settings.Sensitivity = n
	}
	if v := queryParam(q, "minConfidence", "min_confidence"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return settings, errors.New("minConfidence must be an integer")
		}
		settings.MinConfidence = n
	}
	if v := queryParam(q, "alertTypes", "alert_types"); v != "" {
		settings.AlertTypes = splitCSV(v)
	}
	if v := q.Get("sectors"); v != "" {
		settings.Sectors = splitCSV(v)
	}
	if v := queryParam(q, "minPremium", "min_premium"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return settings, errors.New("minPremium must be a number")
		}
		settings.MinPremium = f
	}
	if v := queryParam(q, "maxTimeToExpiry", "max_time_to_expiry"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return settings, errors.New("maxTimeToExpiry must be an integer")
		}
		settings.MaxTimeToExpiry = n
	}
	if v := queryParam(q, "maxAlerts", "max_alerts"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return settings, errors.New("maxAlerts must be an integer")
		}
		settings.MaxAlerts = n
	}

	return settings, nil
}

// queryParam returns the first non-empty value among the given aliases.
func queryParam(q url.Values, names ...string) string {
	for _, name := range names {
		if v := q.Get(name); v != "" {
			return v
		}
	}
	return ""
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Headers are already out; nothing left to do.
		return
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Success: false, Error: err.Error()}

	var verrs *radar.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Error = "invalid scan settings"
		for _, fe := range verrs.Fields {
			resp.Details = append(resp.Details, fe.Field+": "+fe.Message)
		}
	}

	writeJSON(w, status, resp)
}

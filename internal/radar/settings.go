package radar

import (
	"fmt"
	"sort"
	"strings"
)

// ScanSettings tunes one scan. Settings are validated once per request;
// an invalid value is the only fatal error in the pipeline.
type ScanSettings struct {
	Sensitivity     int      `json:"sensitivity"`
	MinConfidence   int      `json:"minConfidence"`
	AlertTypes      []string `json:"alertTypes"`
	Sectors         []string `json:"sectors,omitempty"`
	MinPremium      float64  `json:"minPremium"`
	MaxTimeToExpiry int      `json:"maxTimeToExpiry"`
	MaxAlerts       int      `json:"maxAlerts"`
}

// DefaultSettings returns the baseline scan configuration.
func DefaultSettings() ScanSettings {
	return ScanSettings{
		Sensitivity:     7,
		MinConfidence:   75,
		AlertTypes:      []string{AlertSweep, AlertUnusualVolume, AlertMomentum, AlertFlowImbalance},
		Sectors:         nil,
		MinPremium:      100_000,
		MaxTimeToExpiry: 60,
		MaxAlerts:       50,
	}
}

var knownAlertTypes = map[string]bool{
	AlertSweep:         true,
	AlertUnusualVolume: true,
	AlertMomentum:      true,
	AlertFlowImbalance: true,
}

// FieldError is one invalid setting.
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors collects every invalid setting so the caller sees them
// all at once instead of fixing them one request at a time.
type ValidationErrors struct {
	Fields []FieldError
}

func (e *ValidationErrors) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationErrors) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid scan settings:")
	for _, f := range e.Fields {
		sb.WriteString(fmt.Sprintf("\n  - %s: %s", f.Field, f.Message))
	}
	return sb.String()
}

// Validate checks every field and returns a *ValidationErrors covering all
// violations, or nil.
func (s ScanSettings) Validate() error {
	errs := &ValidationErrors{}

	if s.Sensitivity < 1 || s.Sensitivity > 10 {
		errs.add("sensitivity", "must be in [1,10], got %d", s.Sensitivity)
	}
	if s.MinConfidence < 50 || s.MinConfidence > 95 {
		errs.add("minConfidence", "must be in [50,95], got %d", s.MinConfidence)
	}
	if len(s.AlertTypes) == 0 {
		errs.add("alertTypes", "at least one alert type is required")
	}
	for _, t := range s.AlertTypes {
		if !knownAlertTypes[t] {
			errs.add("alertTypes", "unknown alert type %q (valid: %s)", t, knownAlertTypesList())
		}
	}
	if s.MinPremium < 0 {
		errs.add("minPremium", "must be >= 0, got %g", s.MinPremium)
	}
	if s.MaxTimeToExpiry < 1 {
		errs.add("maxTimeToExpiry", "must be >= 1 day, got %d", s.MaxTimeToExpiry)
	}
	if s.MaxAlerts < 1 {
		errs.add("maxAlerts", "must be >= 1, got %d", s.MaxAlerts)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func (s ScanSettings) allowsAlertType(alertType string) bool {
	for _, t := range s.AlertTypes {
		if t == alertType {
			return true
		}
	}
	return false
}

// allowsSector reports whether sector passes the allow-list. An empty
// allow-list admits everything, including candidates with no sector tag.
func (s ScanSettings) allowsSector(sector string) bool {
	if len(s.Sectors) == 0 {
		return true
	}
	for _, sec := range s.Sectors {
		if strings.EqualFold(sec, sector) {
			return true
		}
	}
	return false
}

func knownAlertTypesList() string {
	types := make([]string, 0, len(knownAlertTypes))
	for t := range knownAlertTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return strings.Join(types, ", ")
}

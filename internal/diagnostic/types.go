package diagnostic

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Well-known diagnostic codes.
const (
	CodeWeightsDefaulted = "weights_defaulted"
	CodeThresholdClamped = "threshold_clamped"
	CodeMissingURL       = "missing_url"
	CodeDuplicateURL     = "duplicate_url"
	CodeEmptySheet       = "empty_sheet"
	CodeFetchFailed      = "fetch_failed"
	CodeAmbiguousMatch   = "ambiguous_match"
	CodeNoCandidates     = "no_candidates"
)

// Diagnostics holds the input-quality issues of one run. None of them is
// fatal: genuine failures are returned as errors instead. It is not safe for concurrent use; concurrent producers collect locally
// and merge after joining.
type Diagnostics struct {
	Warnings []Diagnostic `json:"warnings,omitempty"`
	Infos    []Diagnostic `json:"infos,omitempty"`
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity Severity `json:"severity"`
	// Code is a unique identifier for this type of diagnostic.
	Code string `json:"code"`
	// Message is the human-readable description.
	Message string `json:"message"`
	// Sheet identifies the input list this relates to (if any), e.g. "DE".
	Sheet string `json:"sheet,omitempty"`
	// Ref identifies the record this relates to (if any): its id or URL.
	Ref string `json:"ref,omitempty"`
}

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "info":
		*s = SeverityInfo
	case "warning":
		*s = SeverityWarning
	default:
		return fmt.Errorf("unknown severity %q", text)
	}

	return nil
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, sheet, ref string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  message,
		Sheet:    sheet,
		Ref:      ref,
	})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, sheet, ref string) {
	d.Infos = append(d.Infos, Diagnostic{
		Severity: SeverityInfo,
		Code:     code,
		Message:  message,
		Sheet:    sheet,
		Ref:      ref,
	})
}

// HasWarnings returns true if there are any warning diagnostics.
func (d *Diagnostics) HasWarnings() bool {
	return len(d.Warnings) > 0
}

// Count returns the number of diagnostics with the given code.
func (d *Diagnostics) Count(code string) int {
	n := 0

	for _, list := range [][]Diagnostic{d.Warnings, d.Infos} {
		for _, diag := range list {
			if diag.Code == code {
				n++
			}
		}
	}

	return n
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// Log writes every diagnostic to logger at the matching level.
func (d *Diagnostics) Log(logger *zap.Logger) {
	if logger == nil {
		return
	}

	for _, w := range d.Warnings {
		logger.Warn(w.Message, w.fields()...)
	}

	for _, i := range d.Infos {
		logger.Debug(i.Message, i.fields()...)
	}
}

func (d Diagnostic) fields() []zap.Field {
	fields := []zap.Field{zap.String("code", d.Code)}
	if d.Sheet != "" {
		fields = append(fields, zap.String("sheet", d.Sheet))
	}

	if d.Ref != "" {
		fields = append(fields, zap.String("ref", d.Ref))
	}

	return fields
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Sheet != "" {
		prefix = append(prefix, "["+d.Sheet+"]")
	}

	if d.Ref != "" {
		prefix = append(prefix, d.Ref)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}

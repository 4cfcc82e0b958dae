package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a report failure.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindMissingInput       Kind = "missing_input"
	KindInvalidData        Kind = "invalid_data"
	KindInvalidSettings    Kind = "invalid_settings"
	KindArtifactGeneration Kind = "artifact_generation"
	KindRender             Kind = "render"
	KindExport             Kind = "export"
	KindPublish            Kind = "publish"
	KindCancelled          Kind = "cancelled"
	KindInternal           Kind = "internal"
)

// ReportError is a typed pipeline failure carrying the fund it happened for.
type ReportError struct {
	Kind    Kind   `json:"kind"`
	Fund    string `json:"fund,omitempty"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *ReportError) Error() string {
	if e == nil {
		return "unknown report error"
	}
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Fund != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Kind, e.Fund, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *ReportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches any ReportError of the same kind, so the sentinels below work
// with errors.Is regardless of fund or message.
func (e *ReportError) Is(target error) bool {
	var t *ReportError
	if !errors.As(target, &t) || t == nil || e == nil {
		return false
	}
	return t.Kind == e.Kind && t.Fund == "" && t.Message == ""
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound           = &ReportError{Kind: KindNotFound}
	ErrMissingInput       = &ReportError{Kind: KindMissingInput}
	ErrInvalidData        = &ReportError{Kind: KindInvalidData}
	ErrInvalidSettings    = &ReportError{Kind: KindInvalidSettings}
	ErrArtifactGeneration = &ReportError{Kind: KindArtifactGeneration}
	ErrRender             = &ReportError{Kind: KindRender}
	ErrExport             = &ReportError{Kind: KindExport}
	ErrPublish            = &ReportError{Kind: KindPublish}
	ErrCancelled          = &ReportError{Kind: KindCancelled}
)

// New creates a ReportError
func New(kind Kind, fund, message string, cause error) *ReportError {
	return &ReportError{
		Kind:    kind,
		Fund:    fund,
		Message: message,
		Cause:   cause,
	}
}

// NotFound reports a literal fund selection that matched no directory.
func NotFound(fund string) *ReportError {
	return New(KindNotFound, fund, "no fund directory matches the selection", nil)
}

// InvalidSettings reports a settings record a run cannot start with.
func InvalidSettings(cause error) *ReportError {
	return New(KindInvalidSettings, "", "invalid settings", cause)
}

// Cancelled reports a run stopped at a fund boundary.
func Cancelled(cause error) *ReportError {
	return New(KindCancelled, "", "run cancelled", cause)
}

// MissingInput reports an absent or malformed input file.
func MissingInput(fund, path string, cause error) *ReportError {
	return New(KindMissingInput, fund, fmt.Sprintf("cannot load %s", path), cause)
}

// InvalidData reports input that loaded but cannot be used for derivations.
func InvalidData(fund, message string) *ReportError {
	return New(KindInvalidData, fund, message, nil)
}

// ArtifactGeneration reports a link artifact that could not be encoded.
func ArtifactGeneration(fund string, cause error) *ReportError {
	return New(KindArtifactGeneration, fund, "cannot generate link artifact", cause)
}

// Render wraps a failure of the template renderer.
func Render(fund string, cause error) *ReportError {
	return New(KindRender, fund, "cannot render report workbook", cause)
}

// Export wraps a failure of the document exporter.
func Export(fund string, cause error) *ReportError {
	return New(KindExport, fund, "cannot export report document", cause)
}

// Publish wraps an upload failure. The exported document stays in place.
func Publish(fund string, cause error) *ReportError {
	return New(KindPublish, fund, "cannot publish report document", cause)
}

// KindOf classifies any error; unknown errors are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var re *ReportError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindInternal
}

// IsPublish reports whether err is a publish failure as opposed to a failure
// to produce the document.
func IsPublish(err error) bool {
	return KindOf(err) == KindPublish
}

// WithContext attaches fund and stage to err. Typed errors keep their kind;
// anything else becomes KindInternal.
func WithContext(err error, fund, stage string) error {
	if err == nil {
		return nil
	}
	var re *ReportError
	if errors.As(err, &re) {
		if re.Message == "" {
			// sentinel; never mutate shared values
			return &ReportError{Kind: re.Kind, Fund: fund, Stage: stage, Message: stage + " failed", Cause: err}
		}
		if re.Fund == "" {
			re.Fund = fund
		}
		if re.Stage == "" {
			re.Stage = stage
		}
		return err
	}
	return &ReportError{
		Kind:    KindInternal,
		Fund:    fund,
		Stage:   stage,
		Message: stage + " failed",
		Cause:   err,
	}
}

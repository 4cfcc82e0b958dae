package errors

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/goccy/go-json"
)

// Problem types following RFC 7807
const (
	TypeValidation  = "/errors/validation"
	TypeNotFound    = "/errors/not-found"
	TypeConflict    = "/errors/conflict"
	TypeRateLimit   = "/errors/rate-limit"
	TypeInputData   = "/errors/data/missing-input"
	TypeInvalidData = "/errors/data/invalid"
	TypeArtifact    = "/errors/report/artifact"
	TypeRender      = "/errors/report/render"
	TypeExport      = "/errors/report/export"
	TypePublish     = "/errors/report/publish"
	TypeCancelled   = "/errors/cancelled"
	TypeInternal    = "/errors/internal"
)

// ProblemDetails is an RFC 7807 error body.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]interface{} `json:"-"`
}

// NewProblemDetails creates a new problem body
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:     problemType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}
}

// WithExtension adds a member to the problem body
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	if pd.Extensions == nil {
		pd.Extensions = make(map[string]interface{})
	}
	pd.Extensions[key] = value
	return pd
}

// Render implements the render.Renderer interface
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON flattens extensions into the top-level object
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := map[string]interface{}{
		"type":   pd.Type,
		"title":  pd.Title,
		"status": pd.Status,
	}
	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}
	for k, v := range pd.Extensions {
		data[k] = v
	}
	return json.Marshal(data)
}

type problemMapping struct {
	status      int
	problemType string
	title       string
}

var kindProblems = map[Kind]problemMapping{
	KindNotFound:           {http.StatusNotFound, TypeNotFound, "Fund Not Found"},
	KindInvalidSettings:    {http.StatusBadRequest, TypeValidation, "Invalid Settings"},
	KindMissingInput:       {http.StatusUnprocessableEntity, TypeInputData, "Missing Input"},
	KindInvalidData:        {http.StatusUnprocessableEntity, TypeInvalidData, "Invalid Fund Data"},
	KindArtifactGeneration: {http.StatusInternalServerError, TypeArtifact, "Link Artifact Failed"},
	KindRender:             {http.StatusInternalServerError, TypeRender, "Render Failed"},
	KindExport:             {http.StatusInternalServerError, TypeExport, "Export Failed"},
	KindPublish:            {http.StatusBadGateway, TypePublish, "Publish Failed"},
	KindCancelled:          {http.StatusServiceUnavailable, TypeCancelled, "Run Cancelled"},
}

// ToProblem converts any error to problem details keyed by its kind.
func ToProblem(err error, instance string) *ProblemDetails {
	kind := KindOf(err)
	m, ok := kindProblems[kind]
	if !ok {
		m = problemMapping{http.StatusInternalServerError, TypeInternal, "Internal Server Error"}
	}
	pd := NewProblemDetails(m.status, m.problemType, m.title, err.Error(), instance)
	var re *ReportError
	if As(err, &re) && re.Fund != "" {
		pd.WithExtension("fund", re.Fund)
	}
	return pd
}

// WriteProblem renders pd as the response.
func WriteProblem(w http.ResponseWriter, r *http.Request, pd *ProblemDetails) {
	if err := render.Render(w, r, pd); err != nil {
		http.Error(w, pd.Title, pd.Status)
	}
}

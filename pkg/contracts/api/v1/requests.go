// Package api contains the request and response bodies of the factsheet web
// API. Version v1 represents the current stable API version.
package api

import (
	"github.com/go-playground/validator/v10"

	"factsheet/pkg/contracts/domain"
)

var validate = validator.New()

// RunRequest starts a report run (POST /api/runs).
type RunRequest struct {
	FundSelection          string `json:"fund_selection" validate:"required"`
	OpenExportedDocument   bool   `json:"open_exported_document"`
	UploadExportedDocument bool   `json:"upload_exported_document"`
}

// Validate checks the request shape.
func (r *RunRequest) Validate() error {
	return validate.Struct(r)
}

// Settings converts the request to validated run settings.
func (r *RunRequest) Settings() (domain.Settings, error) {
	s := domain.Settings{
		FundSelection:          r.FundSelection,
		OpenExportedDocument:   r.OpenExportedDocument,
		UploadExportedDocument: r.UploadExportedDocument,
	}
	return s, s.Validate()
}

// RunAccepted is returned for a run started in the background.
type RunAccepted struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// StatusResponse is the body of GET /api/status. Status is null when idle.
type StatusResponse struct {
	Status  *string `json:"status"`
	Running bool    `json:"running"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string      `json:"status"`
	Version interface{} `json:"version"`
}

package domain

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// AllFunds is the selection sentinel that expands to every fund directory.
const AllFunds = "ALL"

// Settings keys as they appear in every front end.
const (
	SettingFundSelection = "Fund Selection"
	SettingOpenPDFs      = "Open PDFs"
	SettingUploadPDFs    = "Upload PDFs"
)

// FundID names a fund's data subdirectory. The caller-supplied spelling is
// preserved; it is used verbatim for URLs and output file names.
type FundID string

// String returns the fund name
func (f FundID) String() string { return string(f) }

// Slug returns the fund name with spaces replaced by hyphens.
func (f FundID) Slug() string {
	return strings.ReplaceAll(string(f), " ", "-")
}

// FundDir pairs a fund directory with the identifier used for it in a run.
type FundDir struct {
	Dir  string `json:"dir"`
	Fund FundID `json:"fund"`
}

// Settings is read once per run and never modified afterwards.
type Settings struct {
	FundSelection          string `json:"fund_selection" validate:"required,fundselection"`
	OpenExportedDocument   bool   `json:"open_exported_document"`
	UploadExportedDocument bool   `json:"upload_exported_document"`
}

// SelectsAll reports whether the selection is the ALL sentinel.
func (s Settings) SelectsAll() bool {
	return s.FundSelection == AllFunds
}

var settingsValidator = newSettingsValidator()

func newSettingsValidator() *validator.Validate {
	v := validator.New()
	// A literal selection names exactly one directory below the funds root.
	_ = v.RegisterValidation("fundselection", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		if name == AllFunds {
			return true
		}
		if strings.TrimSpace(name) == "" || name == "." || name == ".." {
			return false
		}
		return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
	})
	return v
}

// Validate checks the settings record.
func (s Settings) Validate() error {
	if err := settingsValidator.Struct(s); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid setting %q: failed %s check", SettingFundSelection, fe.Tag())
		}
		return err
	}
	return nil
}

// SettingsFromFields converts the key/value form used by the spreadsheet and
// desktop front ends into a validated Settings record.
func SettingsFromFields(fields map[string]string) (Settings, error) {
	var s Settings

	selection, ok := fields[SettingFundSelection]
	if !ok {
		return s, fmt.Errorf("missing setting %q", SettingFundSelection)
	}
	s.FundSelection = strings.TrimSpace(selection)

	var err error
	if s.OpenExportedDocument, err = parseFlag(fields, SettingOpenPDFs); err != nil {
		return s, err
	}
	if s.UploadExportedDocument, err = parseFlag(fields, SettingUploadPDFs); err != nil {
		return s, err
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// parseFlag reads an optional boolean setting; absent means false.
func parseFlag(fields map[string]string, key string) (bool, error) {
	raw, ok := fields[key]
	if !ok {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "false", "no", "n", "0", "off":
		return false, nil
	case "true", "yes", "y", "1", "on":
		return true, nil
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b, nil
	}
	return false, fmt.Errorf("setting %q: %q is not a boolean", key, raw)
}

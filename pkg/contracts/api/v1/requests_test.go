package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factsheet/pkg/contracts/domain"
)

func TestRunRequest(t *testing.T) {
	tests := []struct {
		name        string
		req         RunRequest
		shapeErr    bool
		settingsErr bool
	}{
		{"all funds", RunRequest{FundSelection: "ALL", UploadExportedDocument: true}, false, false},
		{"literal", RunRequest{FundSelection: "Fund A"}, false, false},
		{"missing", RunRequest{}, true, true},
		{"nested path", RunRequest{FundSelection: "a/b"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.shapeErr, tt.req.Validate() != nil)

			s, err := tt.req.Settings()
			if tt.settingsErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.Settings{
				FundSelection:          tt.req.FundSelection,
				OpenExportedDocument:   tt.req.OpenExportedDocument,
				UploadExportedDocument: tt.req.UploadExportedDocument,
			}, s)
		})
	}
}

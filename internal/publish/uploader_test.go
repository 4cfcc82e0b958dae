package publish

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factsheet/internal/config"
)

func TestHTTPUploaderPutsDocument(t *testing.T) {
	var gotPath, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u := NewHTTPUploader(srv.URL+"/", 0, nil)
	err := u.Upload(context.Background(), writeDocument(t), "xlwings", "funds/Fund A.pdf")

	require.NoError(t, err)
	assert.Equal(t, "/xlwings/funds/Fund A.pdf", gotPath)
	assert.Equal(t, "application/pdf", gotType)
	assert.Equal(t, "%PDF-1.4", string(gotBody))
}

func TestHTTPUploaderRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	u := NewHTTPUploader(srv.URL, 1, nil)
	err := u.Upload(context.Background(), writeDocument(t), "xlwings", "funds/Fund A.pdf")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHTTPUploaderMissingFile(t *testing.T) {
	u := NewHTTPUploader("http://127.0.0.1:1", 0, nil)
	err := u.Upload(context.Background(), "/does/not/exist.pdf", "b", "k.pdf")
	assert.Error(t, err)
}

func TestGCSUploaderInsertsObject(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"name":"funds/Fund A.pdf","bucket":"xlwings","size":"8"}`)
	}))
	defer srv.Close()

	cfg := config.Default().Storage
	cfg.Endpoint = srv.URL
	u := NewGCSUploader(cfg, nil)

	err := u.Upload(context.Background(), writeDocument(t), "xlwings", "funds/Fund A.pdf")

	require.NoError(t, err)
	assert.Equal(t, "/upload/storage/v1/b/xlwings/o", gotPath)
	assert.True(t, strings.Contains(gotBody, "funds/Fund A.pdf"), "object metadata carries the key")
	assert.True(t, strings.Contains(gotBody, "%PDF-1.4"), "media part carries the document")
}

func TestEscapeKey(t *testing.T) {
	assert.Equal(t, "funds/Fund%20A.pdf", escapeKey("funds/Fund A.pdf"))
}

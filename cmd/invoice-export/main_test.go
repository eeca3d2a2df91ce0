package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/login":
			_, _ = w.Write([]byte(`{"token":"tok","user":{"role":"plant"}}`))
		case "/api/ride-tickets":
			_, _ = w.Write([]byte(`[
				{"id":1,"userName":"Ravi","vendor":{"id":3,"vendorName":"Fast Cabs"},"pickupDate":"2024-03-02T09:00:00Z","cost":150},
				{"id":2,"userName":"Mala","vendor":{"id":4,"vendorName":"Other"},"pickupDate":"2024-03-02T09:00:00Z","cost":90}
			]`))
		case "/api/vendors":
			_, _ = w.Write([]byte(`[{"id":3,"vendorName":"Fast Cabs"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestRunWritesInvoice(t *testing.T) {
	srv := fakeServer(t)
	defer srv.Close()
	dir := t.TempDir()

	path, err := run(context.Background(), options{
		baseURL:  srv.URL,
		email:    "plant@corp.test",
		password: "pw",
		vendor:   "3",
		fileName: "march invoice",
		outDir:   dir,
		timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, ".pdf"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "%PDF-"))
}

func TestRunRejectsBadFilter(t *testing.T) {
	_, err := run(context.Background(), options{email: "a", password: "b", from: "2024-03-01", timeout: time.Second})
	assert.Error(t, err)
}

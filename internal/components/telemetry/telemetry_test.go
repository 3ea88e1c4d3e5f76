package telemetry

import (
	"context"
	"io"
	"strings"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := &Recorder{}
	scoped := NewScopedAPI("ebird_scraper", rec)

	scoped.ReportBroken("client.get-checklist", "S1")
	scoped.ReportWarning("client.get-recent", "US-MA")
	scoped.ReportCount("checklists", 3)

	require.Len(t, rec.Reports(""), 3)

	broken := rec.Reports("broken")
	require.Len(t, broken, 1)
	require.Equal(t, "ebird_scraper: client.get-checklist", broken[0].ID)
	require.Equal(t, []any{"S1"}, broken[0].Params)

	counts := rec.Reports("count")
	require.Equal(t, []any{int64(3)}, counts[0].Params)
}

func TestSetupWithoutExporters(t *testing.T) {
	tel, err := Setup(context.Background(), "test:telemetry", OtlpConfig{})
	require.NoError(t, err)
	require.False(t, tel.Enabled())
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "http")
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	rec := &Recorder{}
	client := resty.New().SetBaseURL(server.URL)
	InstrumentResty(client, rec, output)

	_, err = client.R().SetContext(context.Background()).Get("/ok")
	require.NoError(t, err)
	_, err = client.R().SetContext(context.Background()).Get("/missing")
	require.NoError(t, err)

	debug := rec.Reports("debug")
	require.Len(t, debug, 4)
	require.Equal(t, report_resty_request, debug[0].ID)
	require.Equal(t, report_resty_response, debug[1].ID)

	contents, err := os.ReadFile(filepath.Join(dir, "1"))
	require.NoError(t, err)
	require.Contains(t, string(contents), "---- RESPONSE ----")
	require.Contains(t, string(contents), "<html></html>")
	require.Contains(t, string(contents), "<NO BODY>")

	contents, err = os.ReadFile(filepath.Join(dir, "2"))
	require.NoError(t, err)
	require.Contains(t, string(contents), "404")
}

func TestFormatRequestBody(t *testing.T) {
	get, err := http.NewRequest(http.MethodGet, "https://ebird.org/checklist/S1", nil)
	require.NoError(t, err)

	post, err := http.NewRequest(http.MethodPost, "https://ebird.org/checklist", strings.NewReader("id=S1"))
	require.NoError(t, err)

	emptyGetBody, err := http.NewRequest(http.MethodGet, "https://ebird.org/checklist/S1", nil)
	require.NoError(t, err)
	emptyGetBody.Body = io.NopCloser(strings.NewReader(""))
	emptyGetBody.GetBody = func() (io.ReadCloser, error) { return nil, nil }

	testCases := []struct {
		name     string
		req      *http.Request
		expected string
	}{
		{name: "nil request", req: nil, expected: "<NO BODY>"},
		{name: "get", req: get, expected: "<NO BODY>"},
		{name: "nil from GetBody", req: emptyGetBody, expected: "<NO BODY>"},
		{name: "post", req: post, expected: "id=S1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, formatRequestBody(tc.req))
		})
	}
}

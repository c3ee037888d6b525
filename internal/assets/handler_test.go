package assets

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandlerRedirectsRootToBasePath(t *testing.T) {
	site, config := testProject(t)
	p := New(site, config)
	require.NoError(t, p.Build())

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, site.BasePath, rec.Header().Get("Location"))
}

func TestHandlerServesRenderedIndex(t *testing.T) {
	site, config := testProject(t)
	p := New(site, config)
	require.NoError(t, p.Build())

	entry, _, _, err := p.Assets()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, site.BasePath, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Body.String(), entry)
}

func TestHandlerServesBuiltAssets(t *testing.T) {
	site, config := testProject(t)
	p := New(site, config)
	require.NoError(t, p.Build())

	entry, _, _, err := p.Assets()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, entry, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "hello from the build")
}

func TestHandlerServesPublicFiles(t *testing.T) {
	site, config := testProject(t)
	p := New(site, config)
	require.NoError(t, p.Build())

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, site.BasePath+"robots.txt", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "User-agent")
}

func TestHandlerFallsBackToIndexForClientRoutes(t *testing.T) {
	site, config := testProject(t)
	p := New(site, config)
	require.NoError(t, p.Build())

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, site.BasePath+"some/client/route", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestHandlerServesIndexFromDiskWithoutBuild(t *testing.T) {
	site, config := testProject(t)

	builder := New(site, config)
	require.NoError(t, builder.Build())

	entry, _, _, err := builder.Assets()
	require.NoError(t, err)

	// A fresh pipeline has no in-memory metadata, matching preview mode
	// where the build ran in another process.
	preview := New(site, config)

	rec := httptest.NewRecorder()
	preview.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, site.BasePath, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), entry)
}

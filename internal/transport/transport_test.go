package transport

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ds124wfegd/assetrouter/internal/pkg/origin"
	"github.com/ds124wfegd/assetrouter/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBucket stands in for both the object store and the site upstream.
type fakeBucket struct {
	mu       sync.Mutex
	objects  map[string]string
	requests []string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.requests = append(b.requests, r.URL.RequestURI())
	body, ok := b.objects[r.URL.EscapedPath()]
	b.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Cache-Control", "max-age=60")
	w.Header().Set("ETag", `"etag-1"`)
	io.WriteString(w, body)
}

func (b *fakeBucket) seen() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

func newTestRouter(t *testing.T, bucket *fakeBucket) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)

	svc := service.NewAssetService(
		origin.NewHTTPOrigin(srv.URL+"/file/bucket", srv.Client()),
		nil,
		service.Options{EdgeTTL: 30 * 24 * time.Hour, BrowserTTL: 365 * 24 * time.Hour},
	)
	passthrough, err := NewPassthrough(srv.URL)
	require.NoError(t, err)

	return InitRoutes(NewAssetHandler(svc, "/images/"), passthrough, 5*time.Second, nil)
}

func serve(router *gin.Engine, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestImageNegotiated(t *testing.T) {
	bucket := &fakeBucket{objects: map[string]string{"/file/bucket/hero/banner-960w.avif": "avif"}}
	router := newTestRouter(t, bucket)

	w := serve(router, http.MethodGet, "/images/hero/banner.jpg", map[string]string{"Accept": "image/avif,image/webp"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "avif", w.Body.String())
	assert.Equal(t, "image/avif", w.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=31536000, immutable", w.Header().Get("Cache-Control"))
	assert.Equal(t, "Accept", w.Header().Get("Vary"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, `"etag-1"`, w.Header().Get("ETag"))
	assert.Equal(t, []string{"/file/bucket/hero/banner-960w.avif"}, bucket.seen())
}

func TestImageViewportWidth(t *testing.T) {
	bucket := &fakeBucket{objects: map[string]string{"/file/bucket/hero/banner-640w.webp": "webp"}}
	router := newTestRouter(t, bucket)

	w := serve(router, http.MethodGet, "/images/hero/banner.png", map[string]string{
		"Accept":         "image/webp",
		"Viewport-Width": "414",
		"DPR":            "3",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/webp", w.Header().Get("Content-Type"))
}

func TestImageFallback(t *testing.T) {
	bucket := &fakeBucket{objects: map[string]string{"/file/bucket/hero/banner.png": "png"}}
	router := newTestRouter(t, bucket)

	w := serve(router, http.MethodGet, "/images/hero/banner.png", map[string]string{"Accept": "image/webp"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", w.Body.String())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, []string{
		"/file/bucket/hero/banner-960w.webp",
		"/file/bucket/hero/banner.png",
	}, bucket.seen())
}

func TestImageNotFound(t *testing.T) {
	bucket := &fakeBucket{objects: map[string]string{}}
	router := newTestRouter(t, bucket)

	w := serve(router, http.MethodGet, "/images/hero/missing.jpg", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Image not found", w.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Len(t, bucket.seen(), 2)
}

func TestImageOriginDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	svc := service.NewAssetService(origin.NewHTTPOrigin(url, nil), nil, service.Options{BrowserTTL: time.Hour})
	router := InitRoutes(NewAssetHandler(svc, "/images/"), http.NotFoundHandler(), time.Second, nil)

	w := serve(router, http.MethodGet, "/images/hero/banner.jpg", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Image not found", w.Body.String())
}

func TestImageHead(t *testing.T) {
	bucket := &fakeBucket{objects: map[string]string{"/file/bucket/hero/banner-960w.jpg": "jpg"}}
	router := newTestRouter(t, bucket)

	w := serve(router, http.MethodHead, "/images/hero/banner.jpg", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Body.String())
}

func TestPassthroughUntouched(t *testing.T) {
	bucket := &fakeBucket{objects: map[string]string{
		"/en/services/":          "page",
		"/imagesx/hero/logo.jpg": "not an image route",
	}}
	router := newTestRouter(t, bucket)

	w := serve(router, http.MethodGet, "/en/services/?utm_source=x", map[string]string{"Accept": "image/avif"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "page", w.Body.String())
	assert.Equal(t, "max-age=60", w.Header().Get("Cache-Control"))
	assert.Empty(t, w.Header().Get("Vary"))

	w = serve(router, http.MethodGet, "/imagesx/hero/logo.jpg", map[string]string{"Accept": "image/avif"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))

	assert.Equal(t, []string{
		"/en/services/?utm_source=x",
		"/imagesx/hero/logo.jpg",
	}, bucket.seen())
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, &fakeBucket{})

	w := serve(router, http.MethodGet, HealthPath, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"asset-router"`)
}

func TestNewPassthroughWithoutUpstream(t *testing.T) {
	h, err := NewPassthrough("")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/about", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

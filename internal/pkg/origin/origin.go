// Package origin fetches stored objects from the read-only image origin.
package origin

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// Object is a successful origin response. The caller owns Body.
type Object struct {
	Status int
	Header http.Header
	Body   io.ReadCloser
}

type FetchOptions struct {
	// EdgeTTL asks the edge cache to keep the object this long regardless of
	// origin cache headers. Zero disables edge caching for the fetch.
	EdgeTTL time.Duration
}

// Origin returns an Object only for 2xx responses. Misses wrap
// entity.ErrOriginStatus, transport failures wrap entity.ErrOriginUnavailable.
type Origin interface {
	Fetch(ctx context.Context, path string, opts FetchOptions) (*Object, error)
}

// New picks the origin implementation for baseURL: file:// roots are served from
// disk, anything else over HTTP.
func New(baseURL string, client *http.Client) Origin {
	if root, ok := strings.CutPrefix(baseURL, "file://"); ok {
		return NewFileOrigin(root)
	}
	return NewHTTPOrigin(baseURL, client)
}

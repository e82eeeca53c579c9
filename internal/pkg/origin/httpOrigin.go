package origin

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ds124wfegd/assetrouter/internal/entity"
)

type httpOrigin struct {
	baseURL string
	client  *http.Client
}

func NewHTTPOrigin(baseURL string, client *http.Client) Origin {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpOrigin{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Fetch issues GET <base>/<path>. path is expected to be URL-escaped already.
func (o *httpOrigin) Fetch(ctx context.Context, path string, _ FetchOptions) (*Object, error) {
	url := o.baseURL + "/" + strings.TrimPrefix(path, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrOriginUnavailable, err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrOriginUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: GET %s: %d", entity.ErrOriginStatus, url, resp.StatusCode)
	}

	return &Object{Status: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
}

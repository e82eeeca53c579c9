package transport

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/sirupsen/logrus"
)

// NewPassthrough forwards requests outside the image prefix to upstream with the
// path and query untouched. An empty or non-HTTP upstream answers 404.
func NewPassthrough(upstream string) (http.Handler, error) {
	if upstream == "" {
		return http.NotFoundHandler(), nil
	}

	target, err := url.Parse(upstream)
	if err != nil {
		return nil, err
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return http.NotFoundHandler(), nil
	}

	return &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.Out.URL.Scheme = target.Scheme
			r.Out.URL.Host = target.Host
			r.Out.Host = target.Host
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logrus.WithField("path", r.URL.Path).Errorf("passthrough failed: %v", err)
			w.WriteHeader(http.StatusBadGateway)
		},
	}, nil
}

package transport

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ds124wfegd/assetrouter/internal/entity"
	"github.com/ds124wfegd/assetrouter/internal/pkg/negotiate"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const notFoundBody = "Image not found"

func (h *AssetHandler) ServeAsset(c *gin.Context) {
	path := strings.TrimPrefix(c.Request.URL.EscapedPath(), h.prefix)

	req := entity.AssetRequest{
		Path:        path,
		Negotiation: negotiate.ContextFromHeaders(path, c.Request.Header),
	}

	resp, err := h.service.Route(c.Request.Context(), req)
	if err != nil {
		if !errors.Is(err, entity.ErrImageNotFound) {
			logrus.Errorf("unexpected routing error for %s: %v", path, err)
		}
		c.Data(http.StatusNotFound, "text/plain; charset=utf-8", []byte(notFoundBody))
		return
	}
	defer resp.Body.Close()

	dst := c.Writer.Header()
	for k, v := range resp.Header {
		dst[k] = v
	}
	c.Status(resp.Status)
	c.Writer.WriteHeaderNow()

	if c.Request.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		logrus.WithField("target", resp.Target.Path).Debugf("client stream aborted: %v", err)
	}
}

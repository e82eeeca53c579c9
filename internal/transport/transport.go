package transport

import (
	"net/http"
	"time"

	"github.com/ds124wfegd/assetrouter/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

const HealthPath = "/_router/health"

// InitRoutes serves <prefix>* through the asset handler and sends everything
// else to passthrough unmodified.
func InitRoutes(assetHandler *AssetHandler, passthrough http.Handler, requestTimeout time.Duration, stats StatsProvider) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(requestTimeout))

	images := assetHandler.prefix + "*path"
	router.GET(images, assetHandler.ServeAsset)
	router.HEAD(images, assetHandler.ServeAsset)

	// Health check, namespaced so it does not shadow a site path
	router.GET(HealthPath, func(c *gin.Context) {
		resp := gin.H{
			"status":  "ok",
			"service": "asset-router",
		}
		if stats != nil {
			resp["miss_reporter"] = stats.GetStats()
		}
		c.JSON(http.StatusOK, resp)
	})

	router.NoRoute(gin.WrapH(passthrough))
	return router
}

package transport

import (
	"github.com/ds124wfegd/assetrouter/internal/service"
)

type AssetHandler struct {
	service service.AssetService
	prefix  string
}

func NewAssetHandler(service service.AssetService, prefix string) *AssetHandler {
	return &AssetHandler{service: service, prefix: prefix}
}

// StatsProvider reports background worker counters on the health endpoint.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

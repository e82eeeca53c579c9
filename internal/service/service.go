package service

import (
	"context"
	"time"

	"github.com/ds124wfegd/assetrouter/internal/entity"
	"github.com/ds124wfegd/assetrouter/internal/pkg/origin"
)

type AssetService interface {
	Route(ctx context.Context, req entity.AssetRequest) (*entity.AssetResponse, error)
}

// MissReporter receives variant misses; implementations must not block.
type MissReporter interface {
	Report(miss entity.VariantMiss)
}

type Options struct {
	EdgeTTL            time.Duration
	BrowserTTL         time.Duration
	DetectFallbackType bool
}

type assetService struct {
	origin   origin.Origin
	reporter MissReporter
	opts     Options
}

func NewAssetService(o origin.Origin, reporter MissReporter, opts Options) AssetService {
	return &assetService{
		origin:   o,
		reporter: reporter,
		opts:     opts,
	}
}

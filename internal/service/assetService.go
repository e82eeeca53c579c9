package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ds124wfegd/assetrouter/internal/entity"
	"github.com/ds124wfegd/assetrouter/internal/pkg/negotiate"
	"github.com/ds124wfegd/assetrouter/internal/pkg/origin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Route fetches the negotiated variant, falling back once to the path exactly as
// requested. It returns entity.ErrImageNotFound when both fetches fail.
func (s *assetService) Route(ctx context.Context, req entity.AssetRequest) (*entity.AssetResponse, error) {
	target := negotiate.Resolve(req.Path, req.Negotiation)
	log := logrus.WithFields(logrus.Fields{
		"path":   req.Path,
		"target": target.Path,
	})
	log.Debug("Target computed")

	obj, err := s.origin.Fetch(ctx, target.Path, origin.FetchOptions{EdgeTTL: s.opts.EdgeTTL})
	if err == nil {
		return s.normalize(obj, target, target.Format.ContentType(), false), nil
	}
	log.Warnf("Variant miss, falling back: %v", err)

	obj, fallbackErr := s.origin.Fetch(ctx, req.Path, origin.FetchOptions{})
	s.reportMiss(req, target, fallbackErr == nil)
	if fallbackErr != nil {
		log.Warnf("Fallback miss: %v", fallbackErr)
		return nil, fmt.Errorf("%w: %s", entity.ErrImageNotFound, req.Path)
	}

	contentType := entity.FormatJPG.ContentType()
	if s.opts.DetectFallbackType {
		contentType = negotiate.ContentTypeFromPath(req.Path)
	}
	return s.normalize(obj, target, contentType, true), nil
}

func (s *assetService) normalize(obj *origin.Object, target entity.ResolvedTarget, contentType string, fallback bool) *entity.AssetResponse {
	header := obj.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set("Content-Type", contentType)
	header.Set("Cache-Control", "public, max-age="+strconv.FormatInt(int64(s.opts.BrowserTTL/time.Second), 10)+", immutable")
	header.Set("Vary", "Accept")
	header.Set("X-Content-Type-Options", "nosniff")

	return &entity.AssetResponse{
		Status:   obj.Status,
		Header:   header,
		Body:     obj.Body,
		Target:   target,
		Fallback: fallback,
	}
}

func (s *assetService) reportMiss(req entity.AssetRequest, target entity.ResolvedTarget, fallbackOK bool) {
	if s.reporter == nil {
		return
	}
	s.reporter.Report(entity.VariantMiss{
		ID:           uuid.NewString(),
		TargetPath:   target.Path,
		OriginalPath: req.Path,
		Format:       target.Format,
		Width:        target.Width,
		Sized:        target.Sized,
		FallbackOK:   fallbackOK,
		Time:         time.Now().UTC(),
	})
}

package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/url"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/assetrouter/internal/entity"
	"github.com/ds124wfegd/assetrouter/internal/pkg/negotiate"
	"github.com/ds124wfegd/assetrouter/internal/pkg/storage"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const readRetryDelay = time.Second

// VariantDeriver renders the published variants of one original image.
type VariantDeriver interface {
	Derive(ctx context.Context, originalPath string) (*entity.DerivationResult, error)
}

type Options struct {
	JPEGQuality  int
	MinFileBytes int64
	Overwrite    bool
}

type imageProcessor struct {
	storage storage.FileStorage
	opts    Options
}

func NewImageProcessor(storage storage.FileStorage, opts Options) VariantDeriver {
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 85
	}
	return &imageProcessor{storage: storage, opts: opts}
}

// Derive writes <dir>/<base>-<w>w.jpg for every published width not wider than
// the source. Only JPEG can be encoded here; avif and webp variants are listed
// as skipped.
func (p *imageProcessor) Derive(ctx context.Context, originalPath string) (*entity.DerivationResult, error) {
	if _, sized := negotiate.Classify(originalPath); sized || !negotiate.HasImageExt(originalPath) {
		return nil, fmt.Errorf("%w: %s", entity.ErrNotAnOriginal, originalPath)
	}
	if f, ok := negotiate.FormatFromPath(originalPath); ok && f != entity.FormatJPG {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedFormat, originalPath)
	}

	size, err := p.storage.Size(originalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat original: %w", err)
	}
	if size < p.opts.MinFileBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", entity.ErrSourceTooSmall, originalPath, size)
	}

	img, err := p.loadImage(originalPath)
	if err != nil {
		return nil, err
	}

	key := negotiate.ParseKey(negotiate.StripImageExt(originalPath))
	result := &entity.DerivationResult{Source: originalPath}
	srcWidth := img.Bounds().Dx()

	for _, width := range entity.Widths {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		jpg := entity.AssetVariant{Key: key, Width: width, Format: entity.FormatJPG}
		for _, f := range []entity.Format{entity.FormatAVIF, entity.FormatWebP} {
			result.Skipped = append(result.Skipped, entity.AssetVariant{Key: key, Width: width, Format: f}.Path())
		}

		// no enlargement
		if srcWidth < width {
			result.Skipped = append(result.Skipped, jpg.Path())
			continue
		}
		if !p.opts.Overwrite && p.storage.Exists(jpg.Path()) {
			result.Skipped = append(result.Skipped, jpg.Path())
			continue
		}

		resized := imaging.Resize(img, width, 0, imaging.Lanczos)
		if err := p.saveImage(resized, jpg.Path()); err != nil {
			return result, fmt.Errorf("failed to save %s: %w", jpg.Path(), err)
		}
		result.Written = append(result.Written, jpg.Path())
	}

	logrus.WithFields(logrus.Fields{
		"source":  originalPath,
		"written": len(result.Written),
	}).Info("Derived variants")
	return result, nil
}

func (p *imageProcessor) loadImage(path string) (image.Image, error) {
	file, err := p.storage.Get(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open original: %w", err)
	}
	defer file.Close()

	// gif sources decode to their first frame
	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrUnsupportedFormat, path, err)
	}
	return img, nil
}

func (p *imageProcessor) saveImage(img image.Image, path string) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.opts.JPEGQuality)); err != nil {
		return err
	}
	return p.storage.Save(path, &buf)
}

// HandleMiss derives variants for the original named by a miss event. Misses on
// already sized requests carry no original and are ignored.
func HandleMiss(ctx context.Context, deriver VariantDeriver, miss entity.VariantMiss) (*entity.DerivationResult, error) {
	if miss.Sized {
		return nil, fmt.Errorf("%w: %s", entity.ErrNotAnOriginal, miss.OriginalPath)
	}

	original, err := url.PathUnescape(miss.OriginalPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrNotAnOriginal, miss.OriginalPath)
	}
	return deriver.Derive(ctx, original)
}

// StartImageProcessorConsumer reads variant misses from Kafka until ctx is
// cancelled. Messages are handled one at a time so each original is derived once
// per burst of misses.
func StartImageProcessorConsumer(ctx context.Context, brokers []string, topic, groupID string, deriver VariantDeriver) {

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})

	defer reader.Close()

	logrus.Infof("Variant processor consumer started, brokers: %v, topic: %s", brokers, topic)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logrus.Info("Variant processor consumer stopped")
				return
			}
			logrus.Errorf("Error reading message from Kafka: %v", err)
			time.Sleep(readRetryDelay)
			continue
		}

		logrus.Debugf("Received message from topic %s [partition %d, offset %d]: %s",
			msg.Topic, msg.Partition, msg.Offset, string(msg.Value))

		var miss entity.VariantMiss
		if err := json.Unmarshal(msg.Value, &miss); err != nil {
			logrus.Errorf("Failed to parse miss event: %v", err)
			continue
		}

		result, err := HandleMiss(ctx, deriver, miss)
		if err != nil {
			logrus.Warnf("Derivation skipped for %s: %v", miss.OriginalPath, err)
			continue
		}
		logrus.Infof("Derived %d variants for %s", len(result.Written), result.Source)
	}
}

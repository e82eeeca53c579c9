package origin

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/ds124wfegd/assetrouter/internal/entity"
	"github.com/sirupsen/logrus"
)

const cacheWriteTimeout = 2 * time.Second

// EdgeCache stores complete origin responses. Get returns entity.ErrCacheMiss
// when the key is absent.
type EdgeCache interface {
	Get(ctx context.Context, key string) (*entity.CachedObject, error)
	Set(ctx context.Context, key string, obj *entity.CachedObject, ttl time.Duration) error
}

type cachingOrigin struct {
	inner    Origin
	cache    EdgeCache
	maxBytes int64
}

// NewCachingOrigin serves fetches that carry an EdgeTTL from cache when possible
// and stores successful responses up to maxBytes. The body is streamed to the
// caller while it is copied for the cache.
func NewCachingOrigin(inner Origin, cache EdgeCache, maxBytes int64) Origin {
	return &cachingOrigin{inner: inner, cache: cache, maxBytes: maxBytes}
}

func (c *cachingOrigin) Fetch(ctx context.Context, path string, opts FetchOptions) (*Object, error) {
	if opts.EdgeTTL <= 0 {
		return c.inner.Fetch(ctx, path, opts)
	}

	cached, err := c.cache.Get(ctx, path)
	switch {
	case err == nil:
		logrus.WithField("path", path).Debug("edge cache hit")
		return &Object{
			Status: cached.Status,
			Header: cached.Header.Clone(),
			Body:   io.NopCloser(bytes.NewReader(cached.Body)),
		}, nil
	case !errors.Is(err, entity.ErrCacheMiss):
		logrus.WithField("path", path).Warnf("edge cache read failed: %v", err)
	}

	obj, err := c.inner.Fetch(ctx, path, opts)
	if err != nil {
		return nil, err
	}

	if c.maxBytes <= 0 {
		return obj, nil
	}

	header := obj.Header.Clone()
	status := obj.Status
	storeCtx := context.WithoutCancel(ctx)

	obj.Body = &teeBody{
		src: obj.Body,
		max: c.maxBytes,
		onDone: func(body []byte) {
			ctx, cancel := context.WithTimeout(storeCtx, cacheWriteTimeout)
			defer cancel()

			entry := &entity.CachedObject{Status: status, Header: header, Body: body}
			if err := c.cache.Set(ctx, path, entry, opts.EdgeTTL); err != nil {
				logrus.WithField("path", path).Warnf("edge cache write failed: %v", err)
			}
		},
	}
	return obj, nil
}

// teeBody copies what is read into buf until max is exceeded. onDone fires on
// Close only if the source was read to EOF without overflowing.
type teeBody struct {
	src      io.ReadCloser
	buf      bytes.Buffer
	max      int64
	overflow bool
	eof      bool
	onDone   func([]byte)
}

func (b *teeBody) Read(p []byte) (int, error) {
	n, err := b.src.Read(p)
	if n > 0 && !b.overflow {
		if int64(b.buf.Len()+n) > b.max {
			b.overflow = true
			b.buf = bytes.Buffer{}
		} else {
			b.buf.Write(p[:n])
		}
	}
	if err == io.EOF {
		b.eof = true
	}
	return n, err
}

func (b *teeBody) Close() error {
	err := b.src.Close()
	if b.eof && !b.overflow && b.onDone != nil {
		b.onDone(b.buf.Bytes())
		b.onDone = nil
	}
	return err
}

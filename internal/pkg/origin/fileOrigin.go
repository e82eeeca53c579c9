package origin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/ds124wfegd/assetrouter/internal/entity"
	"github.com/ds124wfegd/assetrouter/internal/pkg/negotiate"
	"github.com/ds124wfegd/assetrouter/internal/pkg/storage"
)

type fileOrigin struct {
	storage storage.FileStorage
}

func NewFileOrigin(root string) Origin {
	return NewStorageOrigin(storage.NewFileStorage(root))
}

func NewStorageOrigin(s storage.FileStorage) Origin {
	return &fileOrigin{storage: s}
}

func (o *fileOrigin) Fetch(ctx context.Context, path string, _ FetchOptions) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrOriginUnavailable, err)
	}

	name, err := url.PathUnescape(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %d", entity.ErrOriginStatus, path, http.StatusBadRequest)
	}

	size, err := o.storage.Size(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s: %d", entity.ErrOriginStatus, path, http.StatusNotFound)
		}
		return nil, fmt.Errorf("%w: %v", entity.ErrOriginUnavailable, err)
	}

	body, err := o.storage.Get(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s: %d", entity.ErrOriginStatus, path, http.StatusNotFound)
		}
		return nil, fmt.Errorf("%w: %v", entity.ErrOriginUnavailable, err)
	}

	header := http.Header{}
	header.Set("Content-Type", negotiate.ContentTypeFromPath(name))
	header.Set("Content-Length", strconv.FormatInt(size, 10))

	return &Object{Status: http.StatusOK, Header: header, Body: body}, nil
}

package storage

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

type FileStorage interface {
	Save(path string, data io.Reader) error
	Get(path string) (io.ReadCloser, error)
	Size(path string) (int64, error)
	Exists(path string) bool
}

type fileStorage struct {
	fs afero.Fs
}

func NewFileStorage(basePath string) FileStorage {
	return NewFileStorageWithFs(afero.NewOsFs(), basePath)
}

// NewFileStorageWithFs roots the storage at basePath on fs. Paths that escape
// basePath are rejected by the underlying afero.BasePathFs.
func NewFileStorageWithFs(fs afero.Fs, basePath string) FileStorage {
	return &fileStorage{fs: afero.NewBasePathFs(fs, basePath)}
}

func (s *fileStorage) Save(path string, data io.Reader) error {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := s.fs.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(file, data)
	return err
}

func (s *fileStorage) Get(path string) (io.ReadCloser, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	return s.fs.Open(path)
}

func (s *fileStorage) Size(path string) (int64, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (s *fileStorage) Exists(path string) bool {
	_, err := s.fs.Stat(path)
	return err == nil
}

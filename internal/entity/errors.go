package entity

import "errors"

var (
	// Routing errors
	ErrImageNotFound     = errors.New("image not found")
	ErrOriginStatus      = errors.New("origin returned non-success status")
	ErrOriginUnavailable = errors.New("origin unavailable")

	// Cache errors
	ErrCacheMiss      = errors.New("cache miss")
	ErrObjectTooLarge = errors.New("object too large to cache")

	// Derivation errors
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrNotAnOriginal     = errors.New("path does not name an original image")
	ErrSourceTooSmall    = errors.New("source file too small")
)

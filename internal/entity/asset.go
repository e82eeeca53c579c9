package entity

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type Format string

const (
	FormatAVIF Format = "avif"
	FormatWebP Format = "webp"
	FormatJPG  Format = "jpg"
)

// Widths are the published breakpoints, ascending. Variants exist only at these widths.
var Widths = []int{360, 640, 960, 1440, 1920}

const DefaultWidth = 960

func (f Format) ContentType() string {
	switch f {
	case FormatAVIF:
		return "image/avif"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// AssetKey identifies a source image independent of any variant.
type AssetKey struct {
	Dir      []string `json:"dir,omitempty"`
	BaseName string   `json:"base_name"`
}

func (k AssetKey) Path() string {
	if len(k.Dir) == 0 {
		return k.BaseName
	}
	return strings.Join(k.Dir, "/") + "/" + k.BaseName
}

// AssetVariant is one stored rendition: <dir>/<base>-<width>w.<format>.
type AssetVariant struct {
	Key    AssetKey `json:"key"`
	Width  int      `json:"width"`
	Format Format   `json:"format"`
}

func (v AssetVariant) Path() string {
	return v.Key.Path() + "-" + strconv.Itoa(v.Width) + "w." + string(v.Format)
}

// NegotiationContext holds the request hints used to pick a variant.
type NegotiationContext struct {
	Accept        string
	ViewportWidth int
	HasViewport   bool
	DPR           string // read but not used for selection
	RequestedPath string
}

// ResolvedTarget is the object the router fetches first.
type ResolvedTarget struct {
	Path   string
	Format Format
	Width  int
	Sized  bool
}

type AssetRequest struct {
	Path        string
	Negotiation NegotiationContext
}

// AssetResponse is a normalized origin response. The caller owns Body.
type AssetResponse struct {
	Status   int
	Header   http.Header
	Body     io.ReadCloser
	Target   ResolvedTarget
	Fallback bool
}

type VariantMiss struct {
	ID           string    `json:"id"`
	TargetPath   string    `json:"target_path"`
	OriginalPath string    `json:"original_path"`
	Format       Format    `json:"format"`
	Width        int       `json:"width"`
	Sized        bool      `json:"sized"`
	FallbackOK   bool      `json:"fallback_ok"`
	Time         time.Time `json:"time"`
}

type DerivationResult struct {
	Source  string   `json:"source"`
	Written []string `json:"written"`
	Skipped []string `json:"skipped,omitempty"`
}

// CachedObject is a fully read origin response kept by the edge cache.
type CachedObject struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

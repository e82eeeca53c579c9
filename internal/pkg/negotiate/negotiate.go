// Package negotiate picks the stored image variant that best fits a request.
// Everything here is pure: no I/O, no shared state.
package negotiate

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/ds124wfegd/assetrouter/internal/entity"
)

const (
	HeaderAccept        = "Accept"
	HeaderViewportWidth = "Viewport-Width"
	HeaderDPR           = "DPR"
)

var (
	// <base>-<digits>w.<avif|webp|jpg|jpeg>, base must be non-empty
	sizedRe    = regexp.MustCompile(`(?i)^(.+)-(\d+)w\.(avif|webp|jpe?g)$`)
	imageExtRe = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp|avif)$`)
)

// SizedPath is an image path that already names a width and format.
type SizedPath struct {
	Base   string
	Width  string
	Format string
}

// SelectFormat returns the best format the Accept header allows: avif, then webp, then jpg.
func SelectFormat(accept string) entity.Format {
	accept = strings.ToLower(accept)
	switch {
	case strings.Contains(accept, "image/avif"):
		return entity.FormatAVIF
	case strings.Contains(accept, "image/webp"):
		return entity.FormatWebP
	default:
		return entity.FormatJPG
	}
}

// SelectSize returns the smallest published width >= hint, clamped to the largest.
// Without a hint it returns entity.DefaultWidth.
func SelectSize(hint int, hasHint bool) int {
	if !hasHint {
		return entity.DefaultWidth
	}
	for _, w := range entity.Widths {
		if w >= hint {
			return w
		}
	}
	return entity.Widths[len(entity.Widths)-1]
}

// ParseViewportWidth reads a Viewport-Width value. Anything that is not a positive
// integer counts as no hint.
func ParseViewportWidth(v string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Classify reports whether imagePath already carries a -<width>w.<format> suffix.
func Classify(imagePath string) (SizedPath, bool) {
	m := sizedRe.FindStringSubmatch(imagePath)
	if m == nil {
		return SizedPath{}, false
	}
	return SizedPath{Base: m[1], Width: m[2], Format: m[3]}, true
}

// StripImageExt removes a known image extension, if any.
func StripImageExt(p string) string {
	return imageExtRe.ReplaceAllString(p, "")
}

// HasImageExt reports whether p ends in a known image extension.
func HasImageExt(p string) bool {
	return imageExtRe.MatchString(p)
}

// ParseKey splits an extension-less path into directory segments and base name.
func ParseKey(p string) entity.AssetKey {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return entity.AssetKey{BaseName: p}
	}
	return entity.AssetKey{Dir: strings.Split(p[:i], "/"), BaseName: p[i+1:]}
}

// FormatFromPath maps a file extension to a format. ok is false for png, gif and
// anything without a variant format.
func FormatFromPath(p string) (entity.Format, bool) {
	m := imageExtRe.FindStringSubmatch(p)
	if m == nil {
		return "", false
	}
	switch strings.ToLower(m[1]) {
	case "avif":
		return entity.FormatAVIF, true
	case "webp":
		return entity.FormatWebP, true
	case "jpg", "jpeg":
		return entity.FormatJPG, true
	}
	return "", false
}

// ContentTypeFromPath returns the MIME type implied by a file extension,
// falling back to image/jpeg.
func ContentTypeFromPath(p string) string {
	if f, ok := FormatFromPath(p); ok {
		return f.ContentType()
	}
	switch strings.ToLower(strings.TrimPrefix(imageExtRe.FindString(p), ".")) {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	}
	return entity.FormatJPG.ContentType()
}

// ContextFromHeaders collects negotiation hints from request headers.
func ContextFromHeaders(imagePath string, h http.Header) entity.NegotiationContext {
	nc := entity.NegotiationContext{
		Accept:        h.Get(HeaderAccept),
		DPR:           h.Get(HeaderDPR),
		RequestedPath: imagePath,
	}
	if v := h.Get(HeaderViewportWidth); v != "" {
		nc.ViewportWidth, nc.HasViewport = ParseViewportWidth(v)
	}
	return nc
}

// Resolve computes the variant to fetch first for imagePath (the request path with
// the router prefix removed).
//
// A sized path keeps its width as given and only has its extension swapped when the
// negotiated format differs. An unsized path gets a width from the viewport hint.
func Resolve(imagePath string, nc entity.NegotiationContext) entity.ResolvedTarget {
	format := SelectFormat(nc.Accept)

	if sp, ok := Classify(imagePath); ok {
		width, _ := strconv.Atoi(sp.Width)
		t := entity.ResolvedTarget{Path: imagePath, Format: format, Width: width, Sized: true}
		if !strings.EqualFold(string(format), sp.Format) {
			t.Path = sp.Base + "-" + sp.Width + "w." + string(format)
		}
		return t
	}

	v := entity.AssetVariant{
		Key:    ParseKey(StripImageExt(imagePath)),
		Width:  SelectSize(nc.ViewportWidth, nc.HasViewport),
		Format: format,
	}
	return entity.ResolvedTarget{Path: v.Path(), Format: v.Format, Width: v.Width}
}

// ComputeTarget is Resolve driven directly by request headers.
func ComputeTarget(imagePath string, h http.Header) entity.ResolvedTarget {
	return Resolve(imagePath, ContextFromHeaders(imagePath, h))
}

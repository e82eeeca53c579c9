package negotiate

import (
	"net/http"
	"testing"

	"github.com/ds124wfegd/assetrouter/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectFormat(t *testing.T) {
	tests := []struct {
		name   string
		accept string
		want   entity.Format
	}{
		{name: "avif only", accept: "image/avif", want: entity.FormatAVIF},
		{name: "avif wins over webp", accept: "image/webp,image/avif,*/*", want: entity.FormatAVIF},
		{name: "avif with quality", accept: "image/avif;q=0.9,image/webp", want: entity.FormatAVIF},
		{name: "webp without avif", accept: "image/webp,image/apng,image/*,*/*;q=0.8", want: entity.FormatWebP},
		{name: "upper case media type", accept: "IMAGE/WEBP", want: entity.FormatWebP},
		{name: "generic image", accept: "image/*", want: entity.FormatJPG},
		{name: "jpeg only", accept: "image/jpeg", want: entity.FormatJPG},
		{name: "absent", accept: "", want: entity.FormatJPG},
		{name: "garbage", accept: ";;,,", want: entity.FormatJPG},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectFormat(tt.accept))
		})
	}
}

func TestSelectSizeRanges(t *testing.T) {
	for hint := 1; hint <= 360; hint++ {
		require.Equal(t, 360, SelectSize(hint, true), "hint %d", hint)
	}
	for hint := 1441; hint <= 1920; hint++ {
		require.Equal(t, 1920, SelectSize(hint, true), "hint %d", hint)
	}
	for _, hint := range []int{1921, 2560, 10000} {
		assert.Equal(t, 1920, SelectSize(hint, true), "hint %d", hint)
	}
}

func TestSelectSizeBreakpoints(t *testing.T) {
	tests := []struct {
		hint int
		want int
	}{
		{361, 640},
		{640, 640},
		{641, 960},
		{960, 960},
		{1000, 1440},
		{1440, 1440},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SelectSize(tt.hint, true), "hint %d", tt.hint)
	}
}

func TestSelectSizeWithoutHint(t *testing.T) {
	assert.Equal(t, 960, SelectSize(0, false))
	assert.Equal(t, 960, SelectSize(5000, false))
}

func TestSelectSizeAlwaysPublished(t *testing.T) {
	published := map[int]bool{}
	for _, w := range entity.Widths {
		published[w] = true
	}
	for hint := 1; hint <= 4000; hint += 7 {
		assert.True(t, published[SelectSize(hint, true)], "hint %d", hint)
	}
}

func TestParseViewportWidth(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"800", 800, true},
		{" 1024 ", 1024, true},
		{"0", 0, false},
		{"-5", 0, false},
		{"wide", 0, false},
		{"800.5", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseViewportWidth(tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestClassify(t *testing.T) {
	sp, ok := Classify("hero/banner-640w.JPEG")
	require.True(t, ok)
	assert.Equal(t, SizedPath{Base: "hero/banner", Width: "640", Format: "JPEG"}, sp)

	for _, p := range []string{
		"hero/banner.jpg",
		"hero/banner-640w.png",
		"hero/banner-640.jpg",
		"hero/banner-w.jpg",
		"-640w.jpg",
		"",
	} {
		_, ok := Classify(p)
		assert.False(t, ok, "path %q", p)
	}
}

func TestParseKey(t *testing.T) {
	assert.Equal(t, entity.AssetKey{Dir: []string{"hero", "2024"}, BaseName: "banner"}, ParseKey("hero/2024/banner"))
	assert.Equal(t, entity.AssetKey{BaseName: "banner"}, ParseKey("banner"))
	assert.Equal(t, "hero/2024/banner", ParseKey("hero/2024/banner").Path())
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		accept    string
		viewport  string
		wantPath  string
		wantSized bool
	}{
		{
			name:     "unsized with avif support and no hint",
			path:     "hero/banner.jpg",
			accept:   "image/avif,image/webp",
			wantPath: "hero/banner-960w.avif",
		},
		{
			name:      "sized jpg rewritten to webp",
			path:      "hero/banner-640w.jpg",
			accept:    "image/webp",
			wantPath:  "hero/banner-640w.webp",
			wantSized: true,
		},
		{
			name:      "sized avif unchanged",
			path:      "hero/banner-640w.avif",
			accept:    "image/avif",
			wantPath:  "hero/banner-640w.avif",
			wantSized: true,
		},
		{
			name:      "sized keeps unpublished width",
			path:      "hero/banner-777w.jpg",
			accept:    "image/webp",
			wantPath:  "hero/banner-777w.webp",
			wantSized: true,
		},
		{
			name:      "sized upper case extension kept verbatim",
			path:      "hero/banner-640w.AVIF",
			accept:    "image/avif",
			wantPath:  "hero/banner-640w.AVIF",
			wantSized: true,
		},
		{
			name:      "sized jpeg normalised to jpg",
			path:      "hero/banner-640w.jpeg",
			wantPath:  "hero/banner-640w.jpg",
			wantSized: true,
		},
		{
			name:     "unsized png with viewport hint",
			path:     "gallery/car.png",
			accept:   "image/webp",
			viewport: "375",
			wantPath: "gallery/car-640w.webp",
		},
		{
			name:     "unsized with oversized hint",
			path:     "car.jpeg",
			viewport: "3000",
			wantPath: "car-1920w.jpg",
		},
		{
			name:     "unsized with unparseable hint",
			path:     "car.jpg",
			viewport: "auto",
			wantPath: "car-960w.jpg",
		},
		{
			name:     "unknown extension is kept",
			path:     "docs/logo.svg",
			wantPath: "docs/logo.svg-960w.jpg",
		},
		{
			name:     "malformed size suffix treated as unsized",
			path:     "hero/banner-640w.png",
			accept:   "image/avif",
			wantPath: "hero/banner-640w-960w.avif",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.accept != "" {
				h.Set(HeaderAccept, tt.accept)
			}
			if tt.viewport != "" {
				h.Set(HeaderViewportWidth, tt.viewport)
			}

			got := ComputeTarget(tt.path, h)
			assert.Equal(t, tt.wantPath, got.Path)
			assert.Equal(t, tt.wantSized, got.Sized)
		})
	}
}

func TestResolveIsFixedPoint(t *testing.T) {
	accepts := []string{"", "image/avif", "image/webp", "image/avif,image/webp", "text/html"}
	viewports := []string{"", "1", "360", "500", "1200", "1920", "4000"}
	paths := []string{"hero/banner.jpg", "a/b/c/photo.PNG", "plain", "x/y.webp"}

	for _, p := range paths {
		for _, a := range accepts {
			for _, v := range viewports {
				h := http.Header{}
				h.Set(HeaderAccept, a)
				h.Set(HeaderViewportWidth, v)

				first := ComputeTarget(p, h)
				require.False(t, first.Sized)

				second := ComputeTarget(first.Path, h)
				assert.True(t, second.Sized)
				assert.Equal(t, first.Path, second.Path, "path %q accept %q viewport %q", p, a, v)
			}
		}
	}
}

func TestContextFromHeadersKeepsDPR(t *testing.T) {
	h := http.Header{}
	h.Set(HeaderDPR, "2")
	h.Set(HeaderViewportWidth, "400")

	nc := ContextFromHeaders("hero/banner.jpg", h)
	assert.Equal(t, "2", nc.DPR)
	assert.True(t, nc.HasViewport)
	assert.Equal(t, 400, nc.ViewportWidth)

	withDPR := Resolve("hero/banner.jpg", nc)
	nc.DPR = ""
	assert.Equal(t, Resolve("hero/banner.jpg", nc), withDPR)
}

func TestContentTypeFromPath(t *testing.T) {
	assert.Equal(t, "image/avif", ContentTypeFromPath("a/b-640w.avif"))
	assert.Equal(t, "image/webp", ContentTypeFromPath("a/b.WEBP"))
	assert.Equal(t, "image/jpeg", ContentTypeFromPath("a/b.jpeg"))
	assert.Equal(t, "image/png", ContentTypeFromPath("a/b.png"))
	assert.Equal(t, "image/gif", ContentTypeFromPath("a/b.gif"))
	assert.Equal(t, "image/jpeg", ContentTypeFromPath("a/b"))
}

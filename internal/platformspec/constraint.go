package platformspec

import (
	"sort"
	"strings"

	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

// Constraint is the effective media envelope for a set of selected platforms:
// the intersection of their accepted formats and the minimum of their size
// limits. A file satisfying the constraint is acceptable to every selected
// platform.
type Constraint struct {
	ImageFormats  []string `json:"image_formats"`
	MaxImageBytes int64    `json:"max_image_bytes"`
	VideoFormats  []string `json:"video_formats"`
	MaxVideoBytes int64    `json:"max_video_bytes"`
}

// ImagesAllowed reports whether the constraint admits any image at all.
func (c Constraint) ImagesAllowed() bool { return len(c.ImageFormats) > 0 }

// VideosAllowed reports whether the constraint admits any video at all.
func (c Constraint) VideosAllowed() bool { return len(c.VideoFormats) > 0 }

// Effective computes the constraint for the given platform selection. With no
// platforms selected a conservative default applies. Unknown platforms are
// ignored. When a kind's format intersection comes up empty, its size limit is
// reported as zero.
func Effective(platforms []enums.Platform) Constraint {
	specs := make([]Spec, 0, len(platforms))
	for _, p := range platforms {
		if spec, ok := For(p); ok {
			specs = append(specs, spec)
		}
	}
	if len(specs) == 0 {
		return defaultConstraint
	}

	out := Constraint{
		ImageFormats:  normalizeFormats(specs[0].ImageFormats),
		MaxImageBytes: specs[0].MaxImageBytes,
		VideoFormats:  normalizeFormats(specs[0].VideoFormats),
		MaxVideoBytes: specs[0].MaxVideoBytes,
	}
	for _, spec := range specs[1:] {
		out.ImageFormats = intersect(out.ImageFormats, spec.ImageFormats)
		out.VideoFormats = intersect(out.VideoFormats, spec.VideoFormats)
		if spec.MaxImageBytes < out.MaxImageBytes {
			out.MaxImageBytes = spec.MaxImageBytes
		}
		if spec.MaxVideoBytes < out.MaxVideoBytes {
			out.MaxVideoBytes = spec.MaxVideoBytes
		}
	}
	if len(out.ImageFormats) == 0 {
		out.ImageFormats = nil
		out.MaxImageBytes = 0
	}
	if len(out.VideoFormats) == 0 {
		out.VideoFormats = nil
		out.MaxVideoBytes = 0
	}
	return out
}

func normalizeFormats(formats []string) []string {
	out := make([]string, 0, len(formats))
	seen := make(map[string]struct{}, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, f := range normalizeFormats(b) {
		set[f] = struct{}{}
	}
	out := make([]string, 0, len(a))
	for _, f := range a {
		if _, ok := set[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

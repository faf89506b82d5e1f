package platformspec

import (
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

const mb = 1 << 20

// Spec is the static media envelope a platform accepts. An empty format list
// means the platform accepts no media of that kind at all.
type Spec struct {
	ImageFormats  []string
	MaxImageBytes int64
	VideoFormats  []string
	MaxVideoBytes int64
}

var specsByPlatform = map[enums.Platform]Spec{
	enums.PlatformFacebook: {
		ImageFormats:  []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		MaxImageBytes: 10 * mb,
		VideoFormats:  []string{"video/mp4", "video/quicktime"},
		MaxVideoBytes: 1024 * mb,
	},
	enums.PlatformInstagram: {
		ImageFormats:  []string{"image/jpeg", "image/png"},
		MaxImageBytes: 8 * mb,
		VideoFormats:  []string{"video/mp4", "video/quicktime"},
		MaxVideoBytes: 100 * mb,
	},
	enums.PlatformLinkedin: {
		ImageFormats:  []string{"image/jpeg", "image/png", "image/gif"},
		MaxImageBytes: 5 * mb,
		VideoFormats:  []string{"video/mp4"},
		MaxVideoBytes: 200 * mb,
	},
	// YouTube takes no still images; including it empties the image envelope.
	enums.PlatformYoutube: {
		ImageFormats:  nil,
		MaxImageBytes: 0,
		VideoFormats:  []string{"video/mp4", "video/quicktime", "video/webm", "video/x-msvideo"},
		MaxVideoBytes: 128 * 1024 * mb,
	},
}

// defaultConstraint is the conservative envelope applied when no platform is
// selected yet.
var defaultConstraint = Constraint{
	ImageFormats:  []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
	MaxImageBytes: 10 * mb,
	VideoFormats:  []string{"video/mp4", "video/quicktime"},
	MaxVideoBytes: 100 * mb,
}

// For returns the static spec for a platform.
func For(platform enums.Platform) (Spec, bool) {
	spec, ok := specsByPlatform[platform]
	return spec, ok
}

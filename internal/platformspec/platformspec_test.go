package platformspec

import (
	"strings"
	"testing"

	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

func TestEffectiveNoPlatformsUsesDefault(t *testing.T) {
	got := Effective(nil)
	if got.MaxImageBytes != defaultConstraint.MaxImageBytes {
		t.Fatalf("expected default image limit %d, got %d", defaultConstraint.MaxImageBytes, got.MaxImageBytes)
	}
	if len(got.ImageFormats) == 0 || len(got.VideoFormats) == 0 {
		t.Fatalf("default constraint should allow both kinds, got %+v", got)
	}
}

func TestEffectiveSinglePlatformMatchesSpec(t *testing.T) {
	spec, _ := For(enums.PlatformInstagram)
	got := Effective([]enums.Platform{enums.PlatformInstagram})

	if got.MaxImageBytes != spec.MaxImageBytes {
		t.Fatalf("expected image limit %d, got %d", spec.MaxImageBytes, got.MaxImageBytes)
	}
	if got.MaxVideoBytes != spec.MaxVideoBytes {
		t.Fatalf("expected video limit %d, got %d", spec.MaxVideoBytes, got.MaxVideoBytes)
	}
	if len(got.ImageFormats) != len(spec.ImageFormats) {
		t.Fatalf("expected %d image formats, got %v", len(spec.ImageFormats), got.ImageFormats)
	}
}

func TestEffectiveAddingPlatformNeverWidens(t *testing.T) {
	all := []enums.Platform{
		enums.PlatformFacebook,
		enums.PlatformInstagram,
		enums.PlatformLinkedin,
		enums.PlatformYoutube,
	}

	selection := []enums.Platform{}
	prev := Effective([]enums.Platform{all[0]})
	for _, p := range all {
		selection = append(selection, p)
		got := Effective(selection)
		if got.MaxImageBytes > prev.MaxImageBytes {
			t.Fatalf("adding %s raised image limit from %d to %d", p, prev.MaxImageBytes, got.MaxImageBytes)
		}
		if got.MaxVideoBytes > prev.MaxVideoBytes {
			t.Fatalf("adding %s raised video limit from %d to %d", p, prev.MaxVideoBytes, got.MaxVideoBytes)
		}
		if len(got.ImageFormats) > len(prev.ImageFormats) {
			t.Fatalf("adding %s grew image formats from %v to %v", p, prev.ImageFormats, got.ImageFormats)
		}
		if len(got.VideoFormats) > len(prev.VideoFormats) {
			t.Fatalf("adding %s grew video formats from %v to %v", p, prev.VideoFormats, got.VideoFormats)
		}
		prev = got
	}
}

func TestEffectiveYoutubeDisallowsImagesForWholeSelection(t *testing.T) {
	got := Effective([]enums.Platform{enums.PlatformFacebook, enums.PlatformYoutube})

	if got.ImagesAllowed() {
		t.Fatalf("expected images disallowed with youtube selected, got formats %v", got.ImageFormats)
	}
	if got.MaxImageBytes != 0 {
		t.Fatalf("expected zero image limit when images are disallowed, got %d", got.MaxImageBytes)
	}
	if !got.VideosAllowed() {
		t.Fatal("expected videos to remain allowed")
	}
}

func TestEffectiveIgnoresUnknownPlatforms(t *testing.T) {
	known := Effective([]enums.Platform{enums.PlatformLinkedin})
	mixed := Effective([]enums.Platform{enums.PlatformLinkedin, enums.Platform("myspace")})

	if mixed.MaxImageBytes != known.MaxImageBytes || len(mixed.ImageFormats) != len(known.ImageFormats) {
		t.Fatalf("unknown platform changed the constraint: %+v vs %+v", mixed, known)
	}
}

func TestValidateRejectsNonMedia(t *testing.T) {
	err := Validate(FileInfo{Name: "notes.pdf", MimeType: "application/pdf", SizeBytes: 100}, Effective(nil))
	if err == nil || !strings.Contains(err.Error(), "only image and video files are allowed") {
		t.Fatalf("expected non-media rejection, got %v", err)
	}
}

func TestValidateFormatCheckedBeforeSize(t *testing.T) {
	c := Constraint{
		ImageFormats:  []string{"image/jpeg"},
		MaxImageBytes: 4 * mb,
	}
	err := Validate(FileInfo{Name: "xray.png", MimeType: "image/png", SizeBytes: 3 * mb}, c)
	if err == nil {
		t.Fatal("expected a rejection")
	}
	if !strings.Contains(err.Error(), "not supported") {
		t.Fatalf("expected a format-mismatch reason, got %q", err.Error())
	}
}

func TestValidateSizeLimit(t *testing.T) {
	c := Constraint{
		ImageFormats:  []string{"image/png"},
		MaxImageBytes: 4 * mb,
	}

	if err := Validate(FileInfo{MimeType: "image/png", SizeBytes: 4 * mb}, c); err != nil {
		t.Fatalf("file at the limit should pass, got %v", err)
	}

	err := Validate(FileInfo{MimeType: "image/png", SizeBytes: 4*mb + 1}, c)
	if err == nil || !strings.Contains(err.Error(), "Image exceeds limit (4 MB)") {
		t.Fatalf("expected size rejection, got %v", err)
	}
}

func TestValidateVideoAgainstVideoEnvelope(t *testing.T) {
	c := Effective([]enums.Platform{enums.PlatformInstagram})

	if err := Validate(FileInfo{MimeType: "video/mp4", SizeBytes: 50 * mb}, c); err != nil {
		t.Fatalf("mp4 under the limit should pass, got %v", err)
	}
	if err := Validate(FileInfo{MimeType: "video/webm", SizeBytes: 1 * mb}, c); err == nil {
		t.Fatal("webm should be rejected for instagram")
	}
}

func TestValidateMimeCaseInsensitive(t *testing.T) {
	c := Constraint{ImageFormats: []string{"image/jpeg"}, MaxImageBytes: mb}
	if err := Validate(FileInfo{MimeType: "image/JPEG", SizeBytes: 10}, c); err != nil {
		t.Fatalf("MIME match should be case-insensitive, got %v", err)
	}
}

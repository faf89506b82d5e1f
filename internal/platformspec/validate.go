package platformspec

import (
	"fmt"
	"strings"

	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

// FileInfo is the metadata the validator screens: the declared MIME type and
// byte size of a file the client intends to upload.
type FileInfo struct {
	Name      string
	MimeType  string
	SizeBytes int64
}

// Validate screens a file against a constraint. A nil return means the file is
// acceptable to every platform behind the constraint; otherwise the error text
// is the human-readable rejection reason. Format is checked before size, so a
// file that fails both reports the format mismatch.
func Validate(file FileInfo, c Constraint) error {
	kind := enums.MediaKindFromMime(file.MimeType)
	if kind == enums.MediaKindDocument {
		return fmt.Errorf("only image and video files are allowed")
	}

	formats := c.ImageFormats
	limit := c.MaxImageBytes
	noun := "Image"
	if kind == enums.MediaKindVideo {
		formats = c.VideoFormats
		limit = c.MaxVideoBytes
		noun = "Video"
	}

	if !containsFormat(formats, file.MimeType) {
		return fmt.Errorf("Format %s not supported for selected platforms", file.MimeType)
	}
	if file.SizeBytes > limit {
		return fmt.Errorf("%s exceeds limit (%d MB)", noun, limit/mb)
	}
	return nil
}

func containsFormat(formats []string, mime string) bool {
	mime = strings.TrimSpace(mime)
	for _, f := range formats {
		if strings.EqualFold(strings.TrimSpace(f), mime) {
			return true
		}
	}
	return false
}

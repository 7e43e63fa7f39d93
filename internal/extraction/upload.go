package extraction

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxUploadBytes is the image size ceiling.
const DefaultMaxUploadBytes = 10 << 20

// UploadLimits constrains images before they are sent for extraction.
type UploadLimits struct {
	MaxBytes  int64
	AllowHEIC bool
}

// DefaultUploadLimits allows JPEG/PNG/WEBP up to 10 MB.
func DefaultUploadLimits() UploadLimits {
	return UploadLimits{MaxBytes: DefaultMaxUploadBytes}
}

var baseImageTypes = []string{"image/jpeg", "image/png", "image/webp"}
var heicTypes = []string{"image/heic", "image/heif"}

// AllowedTypes lists the accepted MIME types.
func (l UploadLimits) AllowedTypes() []string {
	types := append([]string(nil), baseImageTypes...)
	if l.AllowHEIC {
		types = append(types, heicTypes...)
	}
	return types
}

// ValidateImage checks size and sniffs the content type; the extension is not trusted.
func (l UploadLimits) ValidateImage(in ImageInput) (string, error) {
	if len(in.Data) == 0 {
		return "", &ValidationError{Field: "file", Message: "select an image to upload"}
	}
	if l.MaxBytes > 0 && int64(len(in.Data)) > l.MaxBytes {
		return "", &ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("image is %.1f MB, the limit is %.0f MB", float64(len(in.Data))/(1<<20), float64(l.MaxBytes)/(1<<20)),
		}
	}

	detected := mimetype.Detect(in.Data)
	for _, allowed := range l.AllowedTypes() {
		if detected.Is(allowed) {
			return allowed, nil
		}
	}
	return "", &ValidationError{
		Field:   "file",
		Message: fmt.Sprintf("unsupported file type %s, use %s", detected.String(), strings.Join(l.AllowedTypes(), ", ")),
	}
}

// ValidateURL requires an absolute http(s) URL with a host.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &ValidationError{Field: "url", Message: "enter the menu page URL"}
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return "", &ValidationError{Field: "url", Message: "not a valid URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &ValidationError{Field: "url", Message: "URL must start with http:// or https://"}
	}
	if u.Host == "" {
		return "", &ValidationError{Field: "url", Message: "URL is missing a host"}
	}
	return u.String(), nil
}

package convert

import (
	"fmt"
	"strings"

	"heicbatch/internal/services"
)

// Format is a batch-wide output encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpg"
	FormatWebP Format = "webp"
)

// ParseFormat accepts png, jpg, jpeg, or webp in any case.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return "", services.Wrap(services.ErrValidation, "convert", "parse format",
			fmt.Sprintf("unsupported output format %q (want png, jpg, or webp)", value), nil)
	}
}

// Extension returns the file extension without a dot.
func (f Format) Extension() string {
	return string(f)
}

// MIMEType returns the media type of the encoded output.
func (f Format) MIMEType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// Label is the display name used in CLI output.
func (f Format) Label() string {
	switch f {
	case FormatJPEG:
		return "JPEG"
	case FormatWebP:
		return "WebP"
	default:
		return "PNG"
	}
}

func (f Format) String() string {
	return string(f)
}

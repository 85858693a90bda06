package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultStem is used when a name has nothing left after stripping.
const DefaultStem = "image"

var imageExtensions = []string{".heic", ".heif", ".jpeg", ".jpg", ".png"}

// Extension returns the lowercased extension (with dot) of name when it is one
// of the recognized image extensions, or "" otherwise.
func Extension(name string) string {
	lower := strings.ToLower(BaseName(name))
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return ext
		}
	}
	return ""
}

// Stem strips the directory and a recognized image extension from name and
// sanitizes the remainder. Unknown extensions are kept as part of the stem.
func Stem(name string) string {
	base := BaseName(name)
	if ext := Extension(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	stem := SanitizeFileName(base)
	if stem == "" {
		return DefaultStem
	}
	return stem
}

// CollisionKey folds case and Unicode composition so names that would land on
// the same file on a case-insensitive filesystem compare equal.
func CollisionKey(name string) string {
	return cases.Fold().String(norm.NFC.String(name))
}

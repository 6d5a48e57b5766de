// Package registry maps human-readable language names and office/PDF file
// extensions to the identifiers the translation provider understands.
// Lookups are pure and perform no I/O.
package registry

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotSupported is returned for any language name, language code or file
// extension outside the fixed supported sets.
var ErrNotSupported = errors.New("not supported")

// Display names are matched case-sensitively.
var languageCodes = map[string]string{
	"French":  "fr",
	"English": "en",
	"Spanish": "es",
	"Italian": "it",
}

var mimeTypes = map[string]string{
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pdf":  "application/pdf",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

var supportedCodes = func() map[string]struct{} {
	m := make(map[string]struct{}, len(languageCodes))
	for _, code := range languageCodes {
		m[code] = struct{}{}
	}
	return m
}()

// LanguageCode resolves a display name such as "French" to its language code.
func LanguageCode(displayName string) (string, error) {
	code, ok := languageCodes[displayName]
	if !ok {
		return "", fmt.Errorf("language %q %w: supported languages are %v", displayName, ErrNotSupported, Languages())
	}
	return code, nil
}

// MimeType resolves a file extension (with leading dot) to its content type.
func MimeType(extension string) (string, error) {
	mime, ok := mimeTypes[extension]
	if !ok {
		return "", fmt.Errorf("extension %q %w: supported extensions are %v", extension, ErrNotSupported, Extensions())
	}
	return mime, nil
}

// SupportedCode reports whether code belongs to the supported language set.
func SupportedCode(code string) bool {
	_, ok := supportedCodes[code]
	return ok
}

// Languages returns the supported display names in sorted order.
func Languages() []string {
	names := make([]string, 0, len(languageCodes))
	for name := range languageCodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extensions returns the supported file extensions in sorted order.
func Extensions() []string {
	exts := make([]string, 0, len(mimeTypes))
	for ext := range mimeTypes {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

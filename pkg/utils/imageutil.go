package utils

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultUploadName = "upload"

	// MaxFilenameLength bounds the name part of staging keys so a full key
	// stays well under the 255-byte file name limit.
	MaxFilenameLength  = 100
	maxExtensionLength = 10
)

// IsValidImageType checks if content type is one of the allowed types
func IsValidImageType(contentType string, allowed []string) bool {
	ct := NormalizeContentType(contentType)
	for _, validType := range allowed {
		if ct == validType {
			return true
		}
	}
	return false
}

// NormalizeContentType strips parameters and folds aliases such as image/jpg.
func NormalizeContentType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mediaType
	}
	if ct == "image/jpg" || ct == "image/pjpeg" {
		return "image/jpeg"
	}
	return ct
}

// ResolveContentType prefers the sniffed type of the payload and falls back
// to the declared one when sniffing is inconclusive.
func ResolveContentType(declared string, data []byte) string {
	sniffed := NormalizeContentType(http.DetectContentType(data))
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	if declared = NormalizeContentType(declared); declared != "" {
		return declared
	}
	return sniffed
}

// SanitizeFilename reduces an uploaded filename to a safe base name.
func SanitizeFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		return defaultUploadName
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.Trim(b.String(), ".")
	if cleaned == "" {
		return defaultUploadName
	}
	return truncateFilename(cleaned)
}

// truncateFilename shortens name to MaxFilenameLength bytes, keeping a short
// extension. name must already be ASCII.
func truncateFilename(name string) string {
	if len(name) <= MaxFilenameLength {
		return name
	}

	ext := filepath.Ext(name)
	if len(ext) > maxExtensionLength {
		ext = ""
	}
	return name[:MaxFilenameLength-len(ext)] + ext
}

// GenerateStagingKey generates a unique key for a staged upload:
// <unix millis>-<8 hex chars>-<sanitized name>.
func GenerateStagingKey(filename string) string {
	timestamp := time.Now().UnixMilli()
	id := uuid.New().String()[:8]

	return fmt.Sprintf("%d-%s-%s", timestamp, id, SanitizeFilename(filename))
}

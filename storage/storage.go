package storage

import (
	"fmt"
	"math/rand"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/moodyshaheen/protfolio/errs"
)

// RefPrefix is the serving prefix carried by every stored reference.
const RefPrefix = "/uploads/"

// Upload is the raw material for a stored asset.
type Upload struct {
	Bytes        []byte
	ContentType  string
	OriginalName string
}

// Store persists image assets under generated filenames and hands back
// references of the form "/uploads/<filename>".
type Store interface {
	// Save validates and durably writes the upload, returning its reference.
	Save(upload Upload) (string, error)

	// Remove deletes the asset behind ref. Removing a reference that does
	// not exist is not an error.
	Remove(ref string) error

	// Resolve maps a reference to a retrievable location and reports
	// whether the asset exists.
	Resolve(ref string) (string, bool)

	// List returns the references of every stored asset.
	List() ([]string, error)
}

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// AllowedTypes lists the accepted image formats, for error messages.
func AllowedTypes() []string {
	return []string{"jpeg", "jpg", "png", "gif", "webp"}
}

// validateUpload checks the extension, declared content type and size
// before any bytes touch the backend.
func validateUpload(u Upload, maxBytes int64) error {
	ext := strings.ToLower(filepath.Ext(u.OriginalName))
	mediaType := u.ContentType
	if parsed, _, err := mime.ParseMediaType(u.ContentType); err == nil {
		mediaType = parsed
	}

	if !allowedExtensions[ext] || !allowedContentTypes[mediaType] {
		return errs.NewInvalidAssetTypeError(u.ContentType, AllowedTypes())
	}
	if int64(len(u.Bytes)) > maxBytes {
		return errs.NewAssetTooLargeError(int64(len(u.Bytes)), maxBytes)
	}
	return nil
}

// newFilename generates a collision-resistant filename: monotonic time
// component, random component, original extension.
func newFilename(ext string) string {
	return fmt.Sprintf("%d-%09d%s", time.Now().UnixNano(), rand.Intn(1_000_000_000), ext)
}

// refToFilename extracts the bare filename from a reference. References
// that do not carry the prefix or that smuggle path separators are rejected.
func refToFilename(ref string) (string, bool) {
	if !strings.HasPrefix(ref, RefPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(ref, RefPrefix)
	if name == "" || name != filepath.Base(name) {
		return "", false
	}
	return name, true
}

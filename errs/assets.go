package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Asset storage errors
var (
	ErrInvalidAssetType      = errors.New("invalid asset type")
	ErrAssetTooLarge         = errors.New("asset too large")
	ErrAssetStoreUnavailable = errors.New("asset store unavailable")
)

func NewInvalidAssetTypeError(contentType string, allowedTypes []string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrInvalidAssetType,
		Details:    fmt.Sprintf("Unsupported asset type: %s. Allowed types: %v", contentType, allowedTypes),
		Field:      "image",
	}
}

func NewAssetTooLargeError(size, maxSize int64) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrAssetTooLarge,
		Details:    fmt.Sprintf("Asset size %d exceeds maximum allowed size of %d bytes", size, maxSize),
		Field:      "image",
	}
}

func NewAssetStoreUnavailableError(operation string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrAssetStoreUnavailable,
		Details:    fmt.Sprintf("Asset store failed during %s", operation),
		Cause:      cause,
		Field:      "image",
	}
}

func IsInvalidAssetTypeError(err error) bool {
	return errors.Is(err, ErrInvalidAssetType)
}

func IsAssetTooLargeError(err error) bool {
	return errors.Is(err, ErrAssetTooLarge)
}

func IsAssetStoreUnavailableError(err error) bool {
	return errors.Is(err, ErrAssetStoreUnavailable)
}

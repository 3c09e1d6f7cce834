package paymentproof

import (
	"errors"
	"mime"
	"strings"

	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
)

// MaxSize is the largest accepted proof, in bytes.
const MaxSize int64 = 5 * 1024 * 1024

// Scope selects the allow-list a proof is checked against.
type Scope string

const (
	// ScopeCheckout accepts images only.
	ScopeCheckout Scope = "checkout"
	// ScopeStandalone is the dedicated proof upload page, which also takes PDFs.
	ScopeStandalone Scope = "standalone"
)

var (
	ErrUnsupportedType = errors.New("unsupported payment proof type")
	ErrTooLarge        = errors.New("payment proof too large")
)

var imageTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

var allowedTypesByScope = map[Scope][]string{
	ScopeCheckout:   imageTypes,
	ScopeStandalone: append(append([]string{}, imageTypes...), "application/pdf"),
}

var unsupportedMessages = map[Scope]string{
	ScopeCheckout:   "unsupported file format, use JPEG, PNG, or WebP",
	ScopeStandalone: "unsupported file format, use JPEG, PNG, WebP, or PDF",
}

// FileInfo is the metadata a proof is validated on.
type FileInfo struct {
	Name        string
	ContentType string
	Size        int64
}

// Validate applies the type check and then the size check; the first failure is returned.
func Validate(info FileInfo, scope Scope) error {
	allowed, ok := allowedTypesByScope[scope]
	if !ok {
		scope = ScopeCheckout
		allowed = allowedTypesByScope[scope]
	}

	if !containsType(allowed, normalizeType(info.ContentType)) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrUnsupportedType, unsupportedMessages[scope]).
			WithDetails(map[string]any{"content_type": info.ContentType})
	}
	if info.Size > MaxSize {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrTooLarge, "file too large, maximum 5MB").
			WithDetails(map[string]any{"size": info.Size, "max_size": MaxSize})
	}
	return nil
}

func normalizeType(value string) string {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return strings.ToLower(clean)
	}
	return strings.ToLower(mediaType)
}

func containsType(allowed []string, value string) bool {
	for _, candidate := range allowed {
		if candidate == value {
			return true
		}
	}
	return false
}

package validators

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
)

// multipartMemory bounds how much of a form is buffered in memory before spilling to disk.
const multipartMemory = 8 << 20

// IsMultipart reports whether the request carries a multipart/form-data body.
func IsMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.EqualFold(mediaType, "multipart/form-data")
}

// ParseMultipartForm parses a multipart body, mapping oversize bodies to validation errors.
func ParseMultipartForm(r *http.Request) error {
	if !IsMultipart(r) {
		return pkgerrors.New(pkgerrors.CodeValidation, "expected multipart/form-data body")
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body too large")
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
	}
	return nil
}

// OptionalFile returns the first file uploaded under field, or nil when none was sent.
func OptionalFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil || r.MultipartForm.File == nil {
		return nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

// FormValue returns a trimmed form field.
func FormValue(r *http.Request, field string) string {
	return strings.TrimSpace(r.FormValue(field))
}

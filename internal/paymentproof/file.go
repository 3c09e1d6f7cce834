package paymentproof

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// File is a proof ready for validation and upload.
type File struct {
	FileInfo
	Open func() (io.ReadCloser, error)
}

// FromMultipart builds a File from an uploaded form part. The content type is
// sniffed from the leading bytes; when the sniff is inconclusive the type the
// client declared is kept.
func FromMultipart(header *multipart.FileHeader) (File, error) {
	if header == nil {
		return File{}, fmt.Errorf("file header required")
	}

	declared := normalizeType(header.Header.Get("Content-Type"))
	contentType := declared

	f, err := header.Open()
	if err != nil {
		return File{}, fmt.Errorf("open uploaded file: %w", err)
	}
	detected, err := mimetype.DetectReader(f)
	_ = f.Close()
	if err != nil {
		return File{}, fmt.Errorf("detect content type: %w", err)
	}
	if !isGeneric(detected) {
		contentType = normalizeType(detected.String())
	}

	return File{
		FileInfo: FileInfo{
			Name:        strings.TrimSpace(header.Filename),
			ContentType: contentType,
			Size:        header.Size,
		},
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}, nil
}

func isGeneric(m *mimetype.MIME) bool {
	return m == nil || m.Is("application/octet-stream") || m.Is("text/plain")
}

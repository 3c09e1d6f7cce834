package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"sort"
	"strings"
)

// requestFingerprint identifies a request body for idempotency checks.
// Multipart bodies are reduced to their fields and files, so a retry encoded
// with a fresh boundary or a different part order still matches.
func requestFingerprint(contentType string, body []byte) string {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		return hashBody(body)
	}
	boundary := params["boundary"]
	if fp, err := multipartFingerprint(mediaType, boundary, body); err == nil {
		return fp
	}
	return hashBody(bytes.ReplaceAll(body, []byte(boundary), []byte("boundary")))
}

func multipartFingerprint(mediaType, boundary string, body []byte) (string, error) {
	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	var entries []string
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		content, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return "", err
		}
		sum := sha256.Sum256(content)
		entries = append(entries, part.FormName()+"\x00"+part.FileName()+"\x00"+hex.EncodeToString(sum[:]))
	}
	sort.Strings(entries)

	h := sha256.New()
	h.Write([]byte(mediaType))
	for _, entry := range entries {
		h.Write([]byte{'\n'})
		h.Write([]byte(entry))
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

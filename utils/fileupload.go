package utils

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// MaxFileSize is 10MB in bytes
	MaxFileSize = 10 * 1024 * 1024
	// MaxMultipartMemory bounds the form parts held in memory while relaying uploads
	MaxMultipartMemory = 32 << 20
)

// AllowedImageFormats lists the product image extensions the backend accepts
var AllowedImageFormats = []string{".png", ".jpg", ".jpeg", ".webp"}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateImageFile validates the uploaded file format and size
func ValidateImageFile(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File %s exceeds maximum allowed size of %d MB", fileHeader.Filename, MaxFileSize/(1024*1024)),
		}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	for _, allowed := range AllowedImageFormats {
		if ext == allowed {
			return nil
		}
	}

	return &FileUploadError{
		Code:    "INVALID_FILE_FORMAT",
		Message: fmt.Sprintf("Only %s files are allowed", strings.Join(AllowedImageFormats, ", ")),
	}
}

// ValidateImageForm checks every file part of a parsed form.
// A form without any file is rejected.
func ValidateImageForm(form *multipart.Form) error {
	count := 0
	for _, headers := range form.File {
		for _, fh := range headers {
			if err := ValidateImageFile(fh); err != nil {
				return err
			}
			count++
		}
	}
	if count == 0 {
		return &FileUploadError{Code: "NO_FILE", Message: "At least one image file is required"}
	}
	return nil
}

// EncodeMultipart re-encodes a parsed form so it can be relayed upstream.
// Field names are written in sorted order.
func EncodeMultipart(form *multipart.Form) (body *bytes.Buffer, contentType string, err error) {
	body = &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, name := range sortedKeys(form.Value) {
		for _, v := range form.Value[name] {
			if err := writer.WriteField(name, v); err != nil {
				return nil, "", fmt.Errorf("failed to write field %s: %w", name, err)
			}
		}
	}

	for _, name := range sortedKeys(form.File) {
		for _, fh := range form.File[name] {
			if err := copyFilePart(writer, name, fh); err != nil {
				return nil, "", err
			}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

func copyFilePart(writer *multipart.Writer, field string, fh *multipart.FileHeader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filepath.Base(fh.Filename)))
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		h.Set("Content-Type", ct)
	} else {
		h.Set("Content-Type", "application/octet-stream")
	}

	part, err := writer.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create part for %s: %w", fh.Filename, err)
	}

	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("failed to copy %s: %w", fh.Filename, err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package spreadsheet turns uploaded .xls/.xlsx files into typed ingestion rows.
package spreadsheet

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/textset/internal/domain"
)

// Format is a supported workbook encoding.
type Format string

// Supported formats.
const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// MIME types accepted for uploads.
const (
	MIMETypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMETypeXLS  = "application/vnd.ms-excel"
)

var (
	formatByExt = map[string]Format{
		".xlsx": FormatXLSX,
		".xls":  FormatXLS,
	}
	formatByMIME = map[string]Format{
		MIMETypeXLSX: FormatXLSX,
		MIMETypeXLS:  FormatXLS,
	}
)

// CheckType validates the file name and declared content type before any byte is parsed.
// Both must name a supported format, and the same one.
func CheckType(fileName, contentType string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	byExt, ok := formatByExt[ext]
	if !ok {
		return "", fmt.Errorf("extension %q: only .xls and .xlsx files are allowed: %w", ext, domain.ErrUnsupportedFile)
	}

	mt := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mt = parsed
	}
	byMIME, ok := formatByMIME[mt]
	if !ok {
		return "", fmt.Errorf("content type %q: only Excel files are allowed: %w", contentType, domain.ErrUnsupportedFile)
	}

	if byExt != byMIME {
		return "", fmt.Errorf("extension %q does not match content type %q: %w", ext, mt, domain.ErrUnsupportedFile)
	}
	return byExt, nil
}

// ContentTypeFor returns the MIME type matching fileName's extension, or "" when unsupported.
func ContentTypeFor(fileName string) string {
	switch formatByExt[strings.ToLower(filepath.Ext(fileName))] {
	case FormatXLSX:
		return MIMETypeXLSX
	case FormatXLS:
		return MIMETypeXLS
	}
	return ""
}

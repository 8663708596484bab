package documents

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/docvault/docvault/pkg/formatting"
)

// DefaultMaxFileSize is the upload size limit when none is configured.
const DefaultMaxFileSize int64 = 2 * 1024 * 1024

// allowedTypes maps each accepted MIME type to the file extensions
// consistent with it.
var allowedTypes = map[string][]string{
	"image/jpeg":      {".jpg", ".jpeg"},
	"image/png":       {".png"},
	"application/pdf": {".pdf"},
}

// Scanner inspects upload content before it is persisted. It is an
// extension point for malware or structural scanning; a non-nil error
// rejects the upload.
type Scanner interface {
	Scan(ctx context.Context, data []byte) error
}

// NoScanner is the default Scanner. It accepts everything: content
// scanning is a deliberate, documented gap rather than a silent one.
type NoScanner struct{}

func (NoScanner) Scan(context.Context, []byte) error { return nil }

// Validator performs pure checks on an upload. It holds no connections
// and performs no I/O beyond the optional Scanner.
type Validator struct {
	MaxFileSize int64
	Scanner     Scanner
}

// NewValidator creates a Validator with the given size limit. A zero or
// negative limit falls back to DefaultMaxFileSize. A nil scanner is
// replaced with NoScanner.
func NewValidator(maxFileSize int64, scanner Scanner) *Validator {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	if scanner == nil {
		scanner = NoScanner{}
	}
	return &Validator{MaxFileSize: maxFileSize, Scanner: scanner}
}

// Validate checks an upload in order: presence, size, MIME allow-list,
// extension consistency, then the scanner. The first failure wins.
func (v *Validator) Validate(ctx context.Context, up Upload) error {
	if len(up.Data) == 0 {
		return ErrMissingFile
	}

	if size := int64(len(up.Data)); size > v.MaxFileSize {
		return fmt.Errorf(
			"%w: %s exceeds limit of %s",
			ErrFileTooLarge,
			formatting.FormatBytes(size, 1),
			formatting.FormatBytes(v.MaxFileSize, 1),
		)
	}

	extensions, ok := allowedTypes[up.MimeType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidFileType, up.MimeType)
	}

	ext := strings.ToLower(filepath.Ext(up.FileName))
	if !slices.Contains(extensions, ext) {
		return fmt.Errorf(
			"%w: extension %q does not match %s",
			ErrInvalidFileType, ext, up.MimeType,
		)
	}

	if err := v.Scanner.Scan(ctx, up.Data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFileType, err)
	}

	return nil
}

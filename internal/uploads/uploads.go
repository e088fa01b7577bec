// Package uploads validates and stores complaint and message attachments.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"resolvenow/backend/internal/apperr"
	"resolvenow/backend/internal/config"
	"resolvenow/backend/internal/models"
)

// Store persists one uploaded file and describes where it can be fetched.
// Delete takes a path returned by Save; removing a missing file is not an error.
type Store interface {
	Save(ctx context.Context, fh *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, path string) error
}

// Validate enforces the attachment count, size and extension limits.
func Validate(files []*multipart.FileHeader) error {
	if len(files) > config.MaxAttachments {
		return apperr.Validation(fmt.Sprintf("at most %d attachments are allowed", config.MaxAttachments))
	}
	for _, fh := range files {
		if fh.Size > config.MaxAttachmentSize {
			return apperr.Validation(fmt.Sprintf("%s exceeds the %d MB limit", fh.Filename, config.MaxAttachmentSize>>20))
		}
		if !config.AllowedAttachmentExt[strings.ToLower(filepath.Ext(fh.Filename))] {
			return apperr.Validation(fmt.Sprintf("%s: only jpeg, jpg, png, pdf, doc and docx files are allowed", fh.Filename))
		}
	}
	return nil
}

// SaveAll validates and stores the files. names[i], when present and non-blank,
// is the display name of files[i]; otherwise the original file name is used.
func SaveAll(ctx context.Context, store Store, files []*multipart.FileHeader, names []string) ([]models.Attachment, error) {
	if err := Validate(files); err != nil {
		return nil, err
	}
	out := make([]models.Attachment, 0, len(files))
	for i, fh := range files {
		path, err := store.Save(ctx, fh)
		if err != nil {
			err = fmt.Errorf("store %s: %w", fh.Filename, err)
			return nil, errors.Join(err, Discard(ctx, store, out))
		}
		display := fh.Filename
		if i < len(names) && strings.TrimSpace(names[i]) != "" {
			display = strings.TrimSpace(names[i])
		}
		out = append(out, models.Attachment{Path: path, DisplayName: display, OriginalName: fh.Filename})
	}
	return out, nil
}

// Discard removes stored attachments. It keeps going after a failure and
// reports every error it met.
func Discard(ctx context.Context, store Store, atts []models.Attachment) error {
	var errs []error
	for _, a := range atts {
		if err := store.Delete(ctx, a.Path); err != nil {
			errs = append(errs, fmt.Errorf("discard %s: %w", a.Path, err))
		}
	}
	return errors.Join(errs...)
}

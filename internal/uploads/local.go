package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore writes files under Dir and serves them below URLPrefix.
type LocalStore struct {
	Dir       string
	URLPrefix string
}

func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{Dir: dir, URLPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Save stores the file under a random name, keeping the extension.
func (s *LocalStore) Save(_ context.Context, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return path.Join(s.URLPrefix, name), nil
}

// Delete removes a file saved by Save. Paths outside URLPrefix are refused.
func (s *LocalStore) Delete(_ context.Context, p string) error {
	name := path.Base(p)
	if path.Join(s.URLPrefix, name) != p {
		return fmt.Errorf("%s is not a local upload", p)
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

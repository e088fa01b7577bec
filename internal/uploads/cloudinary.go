package uploads

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// CloudinaryStore uploads attachments to Cloudinary and returns their secure URL.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStore(url, folder string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, err
	}
	return &CloudinaryStore{cld: cld, folder: folder}, nil
}

func (s *CloudinaryStore) Save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	file, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	unique := true
	base := strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename))
	res, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         s.folder,
		PublicID:       base + "-" + uuid.NewString()[:8],
		UniqueFilename: &unique,
		ResourceType:   "auto",
	})
	if err != nil {
		return "", err
	}
	if res.Error.Message != "" {
		return "", errors.New(res.Error.Message)
	}
	return res.SecureURL, nil
}

// Delete destroys the asset behind a secure URL returned by Save.
func (s *CloudinaryStore) Delete(ctx context.Context, secureURL string) error {
	publicID, resourceType, err := parseAssetURL(secureURL)
	if err != nil {
		return err
	}
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID, ResourceType: resourceType})
	if err != nil {
		return err
	}
	if res.Error.Message != "" {
		return errors.New(res.Error.Message)
	}
	return nil
}

// parseAssetURL splits a delivery URL of the form
// .../<resource_type>/upload/[v<version>/]<public_id>[.<ext>].
// Raw assets keep their extension as part of the public id.
func parseAssetURL(raw string) (publicID, resourceType string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 1; i < len(parts)-1; i++ {
		if parts[i] != "upload" {
			continue
		}
		resourceType = parts[i-1]
		rest := parts[i+1:]
		if len(rest) > 1 && len(rest[0]) > 1 && rest[0][0] == 'v' && strings.Trim(rest[0][1:], "0123456789") == "" {
			rest = rest[1:]
		}
		publicID = strings.Join(rest, "/")
		if resourceType != "raw" {
			publicID = strings.TrimSuffix(publicID, path.Ext(publicID))
		}
		return publicID, resourceType, nil
	}
	return "", "", fmt.Errorf("%s is not a cloudinary asset url", raw)
}

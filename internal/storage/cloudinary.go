package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/catalog-admin/catalog-admin/internal/config"
)

type cloudinaryUploader interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

type cloudinaryAdmin interface {
	Asset(ctx context.Context, params admin.AssetParams) (*admin.AssetResult, error)
}

// CloudinaryStore keeps blobs as Cloudinary assets. The ref keeps the
// key with its extension, the public id is the key without it below Folder.
type CloudinaryStore struct {
	upload    cloudinaryUploader
	admin     cloudinaryAdmin
	folder    string
	cloudName string
}

// NewCloudinaryStore connects with cfg.URL, or CLOUDINARY_URL when it is empty.
func NewCloudinaryStore(cfg config.CloudinaryStorage) (*CloudinaryStore, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)

	if cfg.URL != "" {
		cld, err = cloudinary.NewFromURL(cfg.URL)
	} else {
		cld, err = cloudinary.New()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}

	cld.Config.URL.Secure = true

	return &CloudinaryStore{
		upload:    &cld.Upload,
		admin:     &cld.Admin,
		folder:    strings.Trim(cfg.Folder, "/"),
		cloudName: cld.Config.Cloud.CloudName,
	}, nil
}

func (s *CloudinaryStore) publicID(ref string) string {
	id := strings.TrimSuffix(ref, path.Ext(ref))
	if s.folder == "" {
		return id
	}

	return s.folder + "/" + id
}

// Put implements Store.
func (s *CloudinaryStore) Put(ctx context.Context, r io.Reader, key string) (string, error) {
	ref, err := CleanRef(key)
	if err != nil {
		return "", err
	}

	res, err := s.upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:       s.publicID(ref),
		Overwrite:      api.Bool(false),
		UniqueFilename: api.Bool(false),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload %s: %w", ref, err)
	}

	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload %s: %s", ref, res.Error.Message) //nolint:goerr113
	}

	return ref, nil
}

// Delete implements Store.
func (s *CloudinaryStore) Delete(ctx context.Context, ref string) error {
	clean, err := CleanRef(ref)
	if err != nil {
		return err
	}

	res, err := s.upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:   s.publicID(clean),
		Invalidate: api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %s: %w", clean, err)
	}

	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("cloudinary destroy %s: result %q %s", clean, res.Result, res.Error.Message) //nolint:goerr113
	}

	return nil
}

// Exists implements Store.
func (s *CloudinaryStore) Exists(ctx context.Context, ref string) (bool, error) {
	clean, err := CleanRef(ref)
	if err != nil {
		return false, err
	}

	res, err := s.admin.Asset(ctx, admin.AssetParams{PublicID: s.publicID(clean)})
	if err != nil {
		return false, fmt.Errorf("cloudinary asset %s: %w", clean, err)
	}

	return res.Error.Message == "" && res.PublicID != "", nil
}

// URL implements Store.
func (s *CloudinaryStore) URL(ref string) string {
	if ref == "" {
		return ""
	}

	return "https://res.cloudinary.com/" + s.cloudName + "/image/upload/" + s.publicID(ref) + path.Ext(ref)
}

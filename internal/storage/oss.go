package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/catalog-admin/catalog-admin/internal/config"
)

// ossBucket is the part of *oss.Bucket the store needs.
type ossBucket interface {
	PutObject(objectKey string, reader io.Reader, options ...oss.Option) error
	DeleteObject(objectKey string, options ...oss.Option) error
	IsObjectExist(objectKey string, options ...oss.Option) (bool, error)
}

// OSSStore keeps blobs in an Aliyun OSS bucket. The object key is the ref.
type OSSStore struct {
	bucket  ossBucket
	baseURL string
}

// NewOSSStore connects to the bucket of cfg.
func NewOSSStore(cfg config.OSSStorage) (*OSSStore, error) {
	// endpoint like https://oss-cn-hangzhou.aliyuncs.com
	cli, err := oss.New(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("oss client: %w", err)
	}

	bucket, err := cli.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("oss bucket %s: %w", cfg.Bucket, err)
	}

	return newOSSStore(bucket, bucketURL(cfg.Endpoint, cfg.Bucket)), nil
}

func newOSSStore(bucket ossBucket, baseURL string) *OSSStore {
	return &OSSStore{bucket: bucket, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// bucketURL is the virtual hosted address https://<bucket>.<endpoint host>.
func bucketURL(endpoint, bucket string) string {
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return ""
	}

	return u.Scheme + "://" + bucket + "." + u.Host
}

// Put implements Store.
func (s *OSSStore) Put(_ context.Context, r io.Reader, key string) (string, error) {
	ref, err := CleanRef(key)
	if err != nil {
		return "", err
	}

	if err = s.bucket.PutObject(ref, r); err != nil {
		return "", fmt.Errorf("oss put %s: %w", ref, err)
	}

	return ref, nil
}

// Delete implements Store. OSS answers 204 for missing objects as well.
func (s *OSSStore) Delete(_ context.Context, ref string) error {
	clean, err := CleanRef(ref)
	if err != nil {
		return err
	}

	if err = s.bucket.DeleteObject(clean); err != nil {
		return fmt.Errorf("oss delete %s: %w", clean, err)
	}

	return nil
}

// Exists implements Store.
func (s *OSSStore) Exists(_ context.Context, ref string) (bool, error) {
	clean, err := CleanRef(ref)
	if err != nil {
		return false, err
	}

	ok, err := s.bucket.IsObjectExist(clean)
	if err != nil {
		return false, fmt.Errorf("oss head %s: %w", clean, err)
	}

	return ok, nil
}

// URL implements Store.
func (s *OSSStore) URL(ref string) string {
	if ref == "" {
		return ""
	}

	return s.baseURL + "/" + ref
}

package blobstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/tencentyun/cos-go-sdk-v5"

	"github.com/gamescrafters/tiersolve/pkg/config"
)

// COSBackend archives blobs to Tencent Cloud COS, adapted from the
// teacher's internal/storage.COSStorage.
type COSBackend struct {
	client *cos.Client
	bucket string
	region string
	domain string
	scheme string
}

// NewCOSBackend builds a COS-backed Backend from cfg.
func NewCOSBackend(cfg config.BlobstoreConfig) (*COSBackend, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, fmt.Errorf("bucket and region are required for cos blobstore")
	}
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("credentials are required for cos blobstore")
	}

	domain := cfg.Domain
	if domain == "" {
		domain = "myqcloud.com"
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}

	bucketURL, err := url.Parse(fmt.Sprintf("%s://%s.cos.%s.%s", scheme, cfg.Bucket, cfg.Region, domain))
	if err != nil {
		return nil, fmt.Errorf("parse bucket url: %w", err)
	}
	serviceURL, err := url.Parse(fmt.Sprintf("%s://cos.%s.%s", scheme, cfg.Region, domain))
	if err != nil {
		return nil, fmt.Errorf("parse service url: %w", err)
	}

	client := cos.NewClient(&cos.BaseURL{
		BucketURL:  bucketURL,
		ServiceURL: serviceURL,
	}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
		},
	})

	return &COSBackend{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		domain: domain,
		scheme: scheme,
	}, nil
}

func (b *COSBackend) Upload(ctx context.Context, key string, reader io.Reader) error {
	if _, err := b.client.Object.Put(ctx, key, reader, nil); err != nil {
		return fmt.Errorf("upload to cos: %w", err)
	}
	return nil
}

func (b *COSBackend) UploadFile(ctx context.Context, key string, localPath string) error {
	if _, err := b.client.Object.PutFromFile(ctx, key, localPath, nil); err != nil {
		return fmt.Errorf("upload file to cos: %w", err)
	}
	return nil
}

func (b *COSBackend) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := b.client.Object.Get(ctx, key, nil)
	if err != nil {
		return nil, fmt.Errorf("download from cos: %w", err)
	}
	return resp.Body, nil
}

func (b *COSBackend) DownloadFile(ctx context.Context, key string, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if _, err := b.client.Object.GetToFile(ctx, key, localPath, nil); err != nil {
		return fmt.Errorf("download file from cos: %w", err)
	}
	return nil
}

func (b *COSBackend) Delete(ctx context.Context, key string) error {
	if _, err := b.client.Object.Delete(ctx, key, nil); err != nil {
		return fmt.Errorf("delete from cos: %w", err)
	}
	return nil
}

func (b *COSBackend) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := b.client.Object.IsExist(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check existence in cos: %w", err)
	}
	return ok, nil
}

func (b *COSBackend) URL(key string) string {
	return fmt.Sprintf("%s://%s.cos.%s.%s/%s", b.scheme, b.bucket, b.region, b.domain, key)
}

package artifacts

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// UploadConfig describes an S3-compatible destination for run artifacts.
type UploadConfig struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	Insecure  bool
}

// Uploader pushes run artifacts to S3-compatible storage.
type Uploader struct {
	cfg    UploadConfig
	client *minio.Client
}

// NewUploader creates a minio client for the configured endpoint.
func NewUploader(cfg UploadConfig) (*Uploader, error) {
	endpoint := cfg.Endpoint
	secure := !cfg.Insecure
	if strings.HasPrefix(endpoint, "http://") {
		secure = false
		endpoint = strings.TrimPrefix(endpoint, "http://")
	} else if strings.HasPrefix(endpoint, "https://") {
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}
	return &Uploader{cfg: cfg, client: client}, nil
}

// UploadDir uploads every regular file under dir, preserving relative
// paths below the configured prefix. Returns the uploaded object keys.
func (u *Uploader) UploadDir(ctx context.Context, dir string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if u.cfg.Prefix != "" {
			key = strings.TrimSuffix(u.cfg.Prefix, "/") + "/" + key
		}
		if _, err := u.client.FPutObject(ctx, u.cfg.Bucket, key, path, minio.PutObjectOptions{}); err != nil {
			return err
		}
		keys = append(keys, key)
		return nil
	})
	return keys, err
}

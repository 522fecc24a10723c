package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"readlater/internal/config"
)

type MinioStore struct {
	Client *minio.Client
	Bucket string

	endpoint      string
	urlScheme     string
	publicBaseURL string
}

func NewMinioStore(cfg config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
		if err := client.SetBucketPolicy(ctx, cfg.Bucket, publicReadPolicy(cfg.Bucket)); err != nil {
			return nil, err
		}
	}

	return &MinioStore{
		Client:        client,
		Bucket:        cfg.Bucket,
		endpoint:      cfg.Endpoint,
		urlScheme:     cfg.URLScheme,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

func (s *MinioStore) PutBytes(ctx context.Context, objectPath string, data []byte, contentType string) error {
	reader := bytes.NewReader(data)
	_, err := s.Client.PutObject(ctx, s.Bucket, objectPath, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s *MinioStore) Remove(ctx context.Context, objectPath string) error {
	return s.Client.RemoveObject(ctx, s.Bucket, objectPath, minio.RemoveObjectOptions{})
}

// PublicURL composes the public address of a stored object. The branch is
// driven by the configured URL scheme, not inferred from the environment:
// local emulation serves plain HTTP straight off the endpoint, hosted
// deployments publish under the configured HTTPS base URL.
func (s *MinioStore) PublicURL(objectPath string) string {
	if s.urlScheme == config.URLSchemeHosted {
		return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.Bucket, objectPath)
	}
	return fmt.Sprintf("http://%s/%s/%s", s.endpoint, s.Bucket, objectPath)
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {"AWS": ["*"]},
      "Action": ["s3:GetObject"],
      "Resource": ["arn:aws:s3:::%s/*"]
    }
  ]
}`, bucket)
}

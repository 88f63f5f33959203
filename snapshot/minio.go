// Package snapshot keeps the full HTML of analyzed pages in object storage.
// The database row only holds the first 50 KB.
package snapshot

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const contentType = "text/html; charset=utf-8"

type MinioStore struct {
	Client *minio.Client
	Bucket string
}

// NewMinioStore connects to endpoint and creates bucket if it is missing.
func NewMinioStore(ctx context.Context, endpoint, accessKey, secretKey string, secure bool, bucket string) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	return &MinioStore{Client: client, Bucket: bucket}, nil
}

// Key is the object path of an analysis snapshot.
func Key(projectID, analysisID string) string {
	return fmt.Sprintf("analyses/%s/%s.html", projectID, analysisID)
}

// PutHTML stores html and returns its object key.
func (s *MinioStore) PutHTML(ctx context.Context, projectID, analysisID, html string) (string, error) {
	key := Key(projectID, analysisID)
	data := []byte(html)
	_, err := s.Client.PutObject(ctx, s.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

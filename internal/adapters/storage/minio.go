package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"collab-service/internal/config"
	"collab-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Attachment is an uploaded chat file, referenced by file messages.
type Attachment struct {
	FileName string `json:"fileName"`
	FileURL  string `json:"fileUrl"`
}

// MinIOClient stores chat attachments in one bucket.
type MinIOClient struct {
	client *minio.Client
	bucket string
	logger *logger.Logger
}

// NewMinIOClient connects to MinIO and creates the bucket if it is missing.
func NewMinIOClient(ctx context.Context, cfg config.MinIOConfig, log *logger.Logger) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	l := log.Component("minio")
	l.Info("Connected to MinIO", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
	return &MinIOClient{client: client, bucket: cfg.Bucket, logger: l}, nil
}

// Upload stores one attachment under a fresh prefix and returns its URL.
func (m *MinIOClient) Upload(ctx context.Context, fileName, contentType string, body io.Reader, size int64) (Attachment, error) {
	name := SanitizeFileName(fileName)
	objectName := ObjectName(uuid.NewString(), name)

	_, err := m.client.PutObject(ctx, m.bucket, objectName, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Attachment{}, fmt.Errorf("failed to upload %s: %w", name, err)
	}

	m.logger.Debug("Attachment uploaded", "object", objectName, "size", size)
	return Attachment{
		FileName: name,
		FileURL:  ObjectURL(m.client.EndpointURL(), m.bucket, objectName),
	}, nil
}

// ObjectName is the key an attachment is stored under.
func ObjectName(id, fileName string) string {
	return path.Join("attachments", id, fileName)
}

// ObjectURL is the public URL of an object in bucket.
func ObjectURL(endpoint *url.URL, bucket, objectName string) string {
	u := url.URL{Scheme: endpoint.Scheme, Host: endpoint.Host, Path: "/" + path.Join(bucket, objectName)}
	return u.String()
}

// SanitizeFileName keeps the base name only and replaces characters that
// would need escaping in an object key.
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

// Package gcs stores and retrieves uploaded statement files in Google
// Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// StorageService provides an interface for statement file storage.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// UploadFile uploads a local statement file under the given object name.
	UploadFile(ctx context.Context, bucketName, objectName, filePath string) error

	// FetchFromURI downloads file bytes from a gs:// URI.
	FetchFromURI(ctx context.Context, uri string) ([]byte, error)

	// FilenameFromURI extracts the object's base filename from a gs:// URI.
	FilenameFromURI(uri string) string
}

// Service is the concrete StorageService backed by Google Cloud Storage.
// It assumes Application Default Credentials are configured.
type Service struct{}

// NewService creates a new Service.
func NewService() *Service {
	return &Service{}
}

// UploadFile uploads a local file to a bucket under the given object name.
func (s *Service) UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file %q: %w", filePath, err)
	}
	defer f.Close()

	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	obj := client.Bucket(bucketName).Object(objectName)
	w := obj.NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy file to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close GCS writer: %w", err)
	}
	return nil
}

// FetchFromURI downloads the object named by a gs://bucket/object URI.
func (s *Service) FetchFromURI(ctx context.Context, uri string) ([]byte, error) {
	bucketName, objectName, err := splitURI(uri)
	if err != nil {
		return nil, fmt.Errorf("FetchFromURI: %w", err)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	r, err := client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object: %w", err)
	}
	return data, nil
}

// FilenameFromURI extracts the base filename from a gs:// URI. Returns an
// empty string when the URI has no object path.
func (s *Service) FilenameFromURI(uri string) string {
	_, objectName, err := splitURI(uri)
	if err != nil || objectName == "" {
		return ""
	}
	return path.Base(objectName)
}

func splitURI(uri string) (bucket, object string, err error) {
	trimmed := strings.TrimPrefix(uri, "gs://")
	if trimmed == uri {
		return "", "", fmt.Errorf("not a gs:// URI: %q", uri)
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed gs:// URI: %q", uri)
	}
	return parts[0], parts[1], nil
}

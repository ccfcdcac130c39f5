package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// SaveToGCSAtomically writes content to a GCS object only if it doesn't already exist.
// An existing object is not a failure: the write is skipped.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName, content string) error {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = "text/plain; charset=utf-8"

	if _, err := io.Copy(writer, strings.NewReader(content)); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			slog.Info("Object already exists, skipping write", "objectName", objectName)
			return nil
		}
		slog.Error("Failed to copy content to GCS object", "objectName", objectName, "error", err)
		return fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		// Small payloads are only sent on Close, so the precondition surfaces here.
		if isPreconditionFailed(err) {
			slog.Info("Object already exists, skipping write", "objectName", objectName)
			return nil
		}
		slog.Error("Failed to close GCS writer", "objectName", objectName, "error", err)
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

// RawArchive keeps the raw upstream text of documents that could not be recovered, so a
// degraded result can be inspected later.
type RawArchive struct {
	bucket     *storage.BucketHandle
	bucketName string
}

func NewRawArchive(client *storage.Client, bucketName string) *RawArchive {
	return &RawArchive{bucket: client.Bucket(bucketName), bucketName: bucketName}
}

// Archive stores content under objectName and returns its gs:// URI. Archiving the same
// name twice keeps the first copy.
func (a *RawArchive) Archive(ctx context.Context, objectName, content string) (string, error) {
	if err := SaveToGCSAtomically(ctx, a.bucket, objectName, content); err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s", a.bucketName, objectName), nil
}

// ObjectReader reads whole objects from Cloud Storage.
type ObjectReader struct {
	client *storage.Client
	limit  int64
}

// NewObjectReader returns a reader that refuses objects larger than limit bytes.
func NewObjectReader(client *storage.Client, limit int64) *ObjectReader {
	return &ObjectReader{client: client, limit: limit}
}

func (r *ObjectReader) ReadObject(ctx context.Context, bucket, name string) ([]byte, error) {
	reader, err := r.client.Bucket(bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", bucket, name, err)
	}
	defer reader.Close()

	if r.limit > 0 && reader.Attrs.Size > r.limit {
		return nil, fmt.Errorf("object gs://%s/%s is %d bytes, limit is %d", bucket, name, reader.Attrs.Size, r.limit)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, name, err)
	}
	return data, nil
}

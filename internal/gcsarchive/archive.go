// Package gcsarchive stores rendered report text in Google Cloud Storage
// so the narrative survives independently of the ai_reports table. It
// assumes Application Default Credentials are configured.
package gcsarchive

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// Archiver writes and reads archived report text. The interface exists so
// handlers and tests can swap in a mock.
type Archiver interface {
	UploadReportText(ctx context.Context, bucket, objectName, text string) (string, error)
	DownloadReportText(ctx context.Context, gcsURI string) (string, error)
}

// GCSArchiver is the concrete Archiver backed by Cloud Storage.
type GCSArchiver struct{}

// NewGCSArchiver creates a new GCSArchiver.
func NewGCSArchiver() *GCSArchiver {
	return &GCSArchiver{}
}

// ObjectName builds the canonical archive path for a report:
// reports/<user>/<YYYY/MM>/<report-id>.txt.
func ObjectName(userID, reportID string, createdAt time.Time) string {
	return fmt.Sprintf("reports/%s/%s/%s.txt", userID, createdAt.Format("2006/01"), reportID)
}

// UploadReportText writes the report text to the bucket and returns the
// resulting gs:// URI.
func (a *GCSArchiver) UploadReportText(ctx context.Context, bucket, objectName, text string) (string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("UploadReportText: creating storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "text/plain; charset=utf-8"

	if _, err := io.WriteString(w, text); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("UploadReportText: writing object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("UploadReportText: finalizing upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", bucket, objectName), nil
}

// DownloadReportText fetches previously archived report text by its
// gs:// URI.
func (a *GCSArchiver) DownloadReportText(ctx context.Context, gcsURI string) (string, error) {
	bucket, object, err := splitGCSURI(gcsURI)
	if err != nil {
		return "", err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("DownloadReportText: creating storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return "", fmt.Errorf("DownloadReportText: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("DownloadReportText: reading bytes: %w", err)
	}

	return string(data), nil
}

// splitGCSURI splits "gs://bucket/path/to/object" into bucket and object.
func splitGCSURI(uri string) (string, string, error) {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI: %q", uri)
	}
	return parts[0], parts[1], nil
}

// ExtractFilenameFromGCSURI extracts the filename from a GCS URI.
// e.g., "gs://bucket/reports/u1/2026/01/r1.txt" → "r1.txt"
func ExtractFilenameFromGCSURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

var _ Archiver = (*GCSArchiver)(nil)

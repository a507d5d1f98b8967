package analysis

import (
	"context"

	"github.com/dojotrack/technique-analyzer/internal/models"
)

// AWSRepository resolves video references in object storage. The subsystem
// only ever reads videos; uploads happen client-side via presigned URLs.
type AWSRepository interface {
	GetPresignedURL(ctx context.Context, input *models.UploadInput) (string, error)
	// DownloadVideo fetches s3://bucket/key into destDir and returns the
	// local path.
	DownloadVideo(ctx context.Context, bucket, key, destDir string) (string, error)
}

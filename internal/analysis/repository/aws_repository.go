package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dojotrack/technique-analyzer/internal/analysis"
	"github.com/dojotrack/technique-analyzer/internal/models"
)

const presignExpiry = 15 * time.Minute

type awsRepository struct {
	s3Client      *s3.Client
	preSignClient *s3.PresignClient
}

func NewAwsRepository(s3Client *s3.Client, preSignClient *s3.PresignClient) analysis.AWSRepository {
	return &awsRepository{
		s3Client:      s3Client,
		preSignClient: preSignClient,
	}
}

func (r *awsRepository) GetPresignedURL(ctx context.Context, input *models.UploadInput) (string, error) {
	req, err := r.preSignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(input.BucketName),
		Key:    aws.String(input.Key),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign upload: %w", err)
	}
	return req.URL, nil
}

func (r *awsRepository) DownloadVideo(ctx context.Context, bucket, key, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	obj, err := r.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get video %s from storage: %w", key, err)
	}
	defer obj.Body.Close()

	localPath := filepath.Join(destDir, filepath.Base(key))
	outFile, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local video file: %w", err)
	}
	defer outFile.Close()

	if _, err = io.Copy(outFile, obj.Body); err != nil {
		return "", fmt.Errorf("failed to write video file: %w", err)
	}
	return localPath, nil
}

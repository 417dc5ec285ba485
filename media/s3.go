package media

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"chatwire/apperr"
	"chatwire/models"
)

// S3Uploader stores media in an S3 (or S3-compatible) bucket under
// chat-media/<kind>/<uuid> and returns the public object URL.
type S3Uploader struct {
	uploader *manager.Uploader
	bucket   string
	region   string
	endpoint string
}

func NewS3Uploader(ctx context.Context, region, bucket, endpoint string) (*S3Uploader, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			// MinIO and friends
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Uploader{
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		region:   region,
		endpoint: endpoint,
	}, nil
}

func (s *S3Uploader) Upload(ctx context.Context, kind models.MediaKind, data *DataURI) (string, error) {
	key := fmt.Sprintf("chat-media/%s/%s", kind, uuid.NewString())
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data.Data),
		ContentType: aws.String(data.ContentType),
	})
	if err != nil {
		return "", apperr.UploadError{Err: err}
	}
	return s.objectURL(key), nil
}

func (s *S3Uploader) objectURL(key string) string {
	escaped := url.PathEscape(key)
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, escaped)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, escaped)
}

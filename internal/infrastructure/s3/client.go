package s3infra

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/property-listing-api/internal/domain"
	"github.com/property-listing-api/internal/pkg/id"
)

// NewClient creates an S3 client. A non-nil endpoint (LocalStack) overrides
// the endpoint and enables path-style addressing.
func NewClient(awsCfg aws.Config, endpoint *string) *s3.Client {
	var clientOpts []func(*s3.Options)
	if endpoint != nil {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = endpoint
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, clientOpts...)
}

type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ImageStore puts listing images into a bucket and returns their public URL.
type ImageStore struct {
	client  putter
	bucket  string
	baseURL string
}

// NewImageStore builds a store. publicBaseURL defaults to the virtual-hosted
// bucket URL for region.
func NewImageStore(client putter, bucket, region, publicBaseURL string) *ImageStore {
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &ImageStore{client: client, bucket: bucket, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (s *ImageStore) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	key := id.ObjectKey("properties", extension(contentType))
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", domain.Upstream("image upload failed", fmt.Errorf("s3 put object: %w", err))
	}
	return s.baseURL + "/" + key, nil
}

func extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

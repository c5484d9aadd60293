package services

import (
	"context"
	"fmt"
	"time"

	sc "github.com/aidolab/mgstudio/internal/server/config"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// videoURLExpiry is how long a presigned video link stays valid.
const videoURLExpiry = 15 * time.Minute

// Presigner hands out short-lived download URLs for stored video objects.
type Presigner interface {
	PresignGet(ctx context.Context, key string) (string, error)
}

// S3Presigner issues presigned GET URLs against an S3-compatible backend.
type S3Presigner struct {
	config *sc.Config
}

func NewS3Presigner(cfg *sc.Config) *S3Presigner {
	return &S3Presigner{config: cfg}
}

// GetRandomStorageKey produces a date-partitioned object key for a rendered
// video.
func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("videos/%d/%d/%d/%v.mp4", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (p *S3Presigner) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(p.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			p.config.S3RootUser,
			p.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(p.config.S3BaseEndpoint)
	})

	return s3.NewPresignClient(client), nil
}

func (p *S3Presigner) PresignGet(ctx context.Context, key string) (string, error) {
	presignClient, err := p.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := p.config.S3Bucket

	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(videoURLExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

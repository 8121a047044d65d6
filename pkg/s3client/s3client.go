package s3client

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	_defaultDialAttempts = 10
	_defaultDialBackoff  = time.Second
	_defaultRegion       = "us-east-1"
)

type S3Client struct {
	dialAttempts int
	dialBackoff  time.Duration

	endpoint     string
	region       string
	accessKey    string
	secretKey    string
	usePathStyle bool

	Client *s3.Client
}

func New(ctx context.Context, endpoint, accessKey, secretKey string, opts ...Option) (*S3Client, error) {
	s3c := &S3Client{
		dialAttempts: _defaultDialAttempts,
		dialBackoff:  _defaultDialBackoff,
		region:       _defaultRegion,
		endpoint:     endpoint,
		accessKey:    accessKey,
		secretKey:    secretKey,
		usePathStyle: true,
	}

	for _, opt := range opts {
		opt(s3c)
	}

	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(s3c.region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3c.accessKey, s3c.secretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("S3Client - New - config.LoadDefaultConfig: %w", err)
	}

	s3c.Client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = s3c.usePathStyle
		o.BaseEndpoint = aws.String(s3c.endpoint)
	})

	for attempt := 1; attempt <= s3c.dialAttempts; attempt++ {
		if err = s3c.probe(ctx); err == nil {
			return s3c, nil
		}

		log.Printf("S3 is trying to connect, attempt %d/%d", attempt, s3c.dialAttempts)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s3c.dialBackoff):
		}
	}

	return nil, fmt.Errorf("S3Client - New - s3c.probe: %w", err)
}

func (s *S3Client) probe(ctx context.Context) error {
	_, err := s.Client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return fmt.Errorf("S3Client - s.Client.ListBuckets: %w", err)
	}

	return nil
}

package persistent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/splitleasesharath/splitlease-sub017/internal/entity"
	"github.com/splitleasesharath/splitlease-sub017/pkg/s3client"
)

// ArchiveRepo writes purged queue items to S3 as JSON lines so retention
// cleanup does not silently destroy delivery history.
type ArchiveRepo struct {
	*s3client.S3Client
	bucket string
}

func NewArchiveRepo(s3c *s3client.S3Client, bucket string) *ArchiveRepo {
	return &ArchiveRepo{s3c, bucket}
}

func (r *ArchiveRepo) ArchiveItems(ctx context.Context, key string, items []*entity.QueueItem) error {
	if len(items) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("ArchiveRepo - ArchiveItems - enc.Encode: %w", err)
		}
	}

	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentType:   aws.String("application/x-ndjson"),
		ContentLength: aws.Int64(int64(buf.Len())),
	})
	if err != nil {
		return fmt.Errorf("ArchiveRepo - ArchiveItems - r.Client.PutObject: %w", err)
	}

	return nil
}

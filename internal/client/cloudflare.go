package client

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/windfall/spellcheck_service/internal/errors"
)

// CloudflareClient stores audio blobs in a Cloudflare R2 bucket over the S3 API.
type CloudflareClient struct {
	s3Client *s3.Client
	bucket   string
}

// NewCloudflareClient creates a new Cloudflare R2 client.
func NewCloudflareClient(ctx context.Context, accessKeyID, secretKey, endpoint, bucketName string) (*CloudflareClient, error) {
	if accessKeyID == "" || secretKey == "" || endpoint == "" || bucketName == "" {
		return nil, errors.Configuration("cloudflare r2 credentials, endpoint and bucket are required")
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &CloudflareClient{
		s3Client: s3Client,
		bucket:   bucketName,
	}, nil
}

// Put uploads an object to R2.
func (c *CloudflareClient) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return errors.Storage("failed to upload to R2", err)
	}
	return nil
}

// Get downloads an object from R2.
func (c *CloudflareClient) Get(ctx context.Context, key string) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Stream(ctx, key, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Stream copies an object from R2 into w.
func (c *CloudflareClient) Stream(ctx context.Context, key string, w io.Writer) error {
	out, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if stderrors.As(err, &noKey) {
			return errors.NotFound("blob " + key)
		}
		return errors.Storage("failed to download from R2", err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return errors.Storage("failed to read R2 object", err)
	}
	return nil
}

// Delete removes an object from R2. S3 deletes of missing keys succeed.
func (c *CloudflareClient) Delete(ctx context.Context, key string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.Storage("failed to delete from R2", err)
	}
	return nil
}

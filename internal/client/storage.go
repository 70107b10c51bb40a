package client

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/windfall/spellcheck_service/internal/errors"
)

// StorageClient stores audio blobs in a Google Cloud Storage bucket.
type StorageClient struct {
	client     *storage.Client
	bucketName string
}

// NewStorageClient creates a new storage client. An empty credentialsFile
// falls back to application default credentials.
func NewStorageClient(ctx context.Context, bucketName, credentialsFile string) (*StorageClient, error) {
	if bucketName == "" {
		return nil, errors.Configuration("gcs bucket name is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Storage("failed to create gcs client", err)
	}

	return &StorageClient{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// Close closes the client.
func (c *StorageClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Put uploads data to cloud storage.
func (c *StorageClient) Put(ctx context.Context, key string, data []byte, contentType string) error {
	w := c.client.Bucket(c.bucketName).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return errors.Storage("failed to upload to gcs", err)
	}
	if err := w.Close(); err != nil {
		return errors.Storage("failed to finalize gcs upload", err)
	}
	return nil
}

// Get downloads data from cloud storage.
func (c *StorageClient) Get(ctx context.Context, key string) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Stream(ctx, key, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Stream downloads data from cloud storage to a writer.
func (c *StorageClient) Stream(ctx context.Context, key string, w io.Writer) error {
	r, err := c.client.Bucket(c.bucketName).Object(key).NewReader(ctx)
	if err != nil {
		if stderrors.Is(err, storage.ErrObjectNotExist) {
			return errors.NotFound("blob " + key)
		}
		return errors.Storage("failed to open gcs object", err)
	}
	defer r.Close()

	if _, err := io.Copy(w, r); err != nil {
		return errors.Storage("failed to read gcs object", err)
	}
	return nil
}

// Delete deletes an object from cloud storage. Missing objects are ignored.
func (c *StorageClient) Delete(ctx context.Context, key string) error {
	err := c.client.Bucket(c.bucketName).Object(key).Delete(ctx)
	if err != nil && !stderrors.Is(err, storage.ErrObjectNotExist) {
		return errors.Storage("failed to delete gcs object", err)
	}
	return nil
}

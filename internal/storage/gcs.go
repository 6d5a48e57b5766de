package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCS implements Store against Google Cloud Storage.
type GCS struct {
	client *gcs.Client
}

func NewGCS(ctx context.Context, credentialsFile string) (*GCS, error) {
	opts := []option.ClientOption{}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCS{client: client}, nil
}

func (s *GCS) Put(ctx context.Context, bucket, key string, data []byte) error {
	w := s.client.Bucket(bucket).Object(key).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing gs://%s/%s: %w", bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("writing gs://%s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *GCS) ListByPrefix(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	it := s.client.Bucket(bucket).Objects(ctx, &gcs.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing gs://%s/%s: %w", bucket, prefix, err)
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

func (s *GCS) DeleteByPrefix(ctx context.Context, bucket, prefix string) (int, error) {
	keys, err := s.ListByPrefix(ctx, bucket, prefix)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, key := range keys {
		err := s.client.Bucket(bucket).Object(key).Delete(ctx)
		if errors.Is(err, gcs.ErrObjectNotExist) {
			continue
		}
		if err != nil {
			return deleted, fmt.Errorf("deleting gs://%s/%s: %w", bucket, key, err)
		}
		deleted++
	}
	return deleted, nil
}

func (s *GCS) Move(ctx context.Context, srcBucket, key, dstBucket string) error {
	src := s.client.Bucket(srcBucket).Object(key)
	dst := s.client.Bucket(dstBucket).Object(key).If(gcs.Conditions{DoesNotExist: true})

	if _, err := dst.CopierFrom(src).Run(ctx); err != nil {
		if preconditionFailed(err) {
			return fmt.Errorf("%w: gs://%s/%s", ErrDestinationExists, dstBucket, key)
		}
		return fmt.Errorf("copying gs://%s/%s to gs://%s: %w", srcBucket, key, dstBucket, err)
	}

	if err := src.Delete(ctx); err != nil {
		return fmt.Errorf("deleting gs://%s/%s after copy: %w", srcBucket, key, err)
	}
	return nil
}

func (s *GCS) Close() error {
	return s.client.Close()
}

func preconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}

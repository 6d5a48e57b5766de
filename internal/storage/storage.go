// Package storage adapts an object-storage bucket as scratch space for
// in-flight translation jobs. Keys are partitioned by job-scoped prefixes
// so concurrent jobs never collide.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrDestinationExists is returned by Move when an object is already
// present at the destination key. The move is aborted rather than
// silently overwriting.
var ErrDestinationExists = errors.New("object already exists at destination")

type Store interface {
	// Put writes data under bucket/key, overwriting any existing object.
	Put(ctx context.Context, bucket, key string, data []byte) error

	// ListByPrefix returns the keys of every object under prefix.
	ListByPrefix(ctx context.Context, bucket, prefix string) ([]string, error)

	// DeleteByPrefix removes every object under prefix and returns the
	// number deleted. A prefix with no matches is a success with count 0.
	DeleteByPrefix(ctx context.Context, bucket, prefix string) (int, error)

	// Move copies bucket/key to dstBucket under the same key, requiring
	// the destination to not exist, then deletes the source.
	Move(ctx context.Context, srcBucket, key, dstBucket string) error
}

// ObjectURI returns the gs:// address of an object or prefix.
func ObjectURI(bucket, key string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, key)
}

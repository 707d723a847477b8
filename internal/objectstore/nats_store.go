// Package objectstore stores card text and generated audio in a NATS
// JetStream object store bucket.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Store implements core.ObjectStore over a single JetStream bucket holding
// both submitted card text and synthesized audio objects.
type Store struct {
	bucket string
	store  nats.ObjectStore
}

// New creates the bucket if it does not exist yet and binds to it.
func New(jetstreamContext nats.JetStreamContext, bucketName string) (*Store, error) {
	store, err := createOrBind(jetstreamContext, bucketName)
	if err != nil {
		return nil, err
	}

	return &Store{
		bucket: bucketName,
		store:  store,
	}, nil
}

func createOrBind(
	jetstreamContext nats.JetStreamContext,
	bucketName string,
) (nats.ObjectStore, error) {
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Card text and audio objects for the %s bucket.", bucketName),
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if err == nil {
		return store, nil
	}

	if !errors.Is(err, jetstream.ErrBucketExists) {
		return nil, fmt.Errorf("failed to create bucket '%s': %w", bucketName, err)
	}

	store, err = jetstreamContext.ObjectStore(bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to bind to existing bucket '%s': %w", bucketName, err)
	}

	return store, nil
}

// Download retrieves one object by key.
func (s *Store) Download(_ context.Context, key string) ([]byte, error) {
	object, err := s.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, s.bucket, err)
	}

	data, readErr := io.ReadAll(object)
	closeErr := object.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}

// Upload stores one object under the given key, replacing any previous
// object with that key.
func (s *Store) Upload(_ context.Context, key string, data []byte) error {
	_, err := s.store.Put(&nats.ObjectMeta{Name: key}, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, s.bucket, err)
	}

	return nil
}

package service

import (
	"context"
	"errors"
	"io"
)

// ErrImageNotFound is returned when a key has no stored object.
var ErrImageNotFound = errors.New("image not found")

// ImageStore keeps product images in object storage.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

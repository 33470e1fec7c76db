package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"tienda/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

func TestBlobStore_PutOpenDelete(t *testing.T) {
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	store := NewBlobStore(bucket)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "productos/a.png", "image/png", strings.NewReader("png-bytes")))

	r, contentType, err := store.Open(ctx, "productos/a.png")
	require.NoError(t, err)
	body, err := io.ReadAll(r)
	require.NoError(t, r.Close())
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(body))
	assert.Equal(t, "image/png", contentType)

	require.NoError(t, store.Delete(ctx, "productos/a.png"))

	_, _, err = store.Open(ctx, "productos/a.png")
	assert.ErrorIs(t, err, service.ErrImageNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "productos/a.png"), service.ErrImageNotFound)
}

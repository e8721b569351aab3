package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/farmaintel/price-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	key := BuildUploadKey(types.SupplierCobeca, "run-1", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), "lista.xlsx")
	assert.Equal(t, "uploads/2026-03-02/run-1/cobeca/lista.xlsx", key)

	meta := &Metadata{OriginalName: "lista.xlsx", Supplier: types.SupplierCobeca, RunID: "run-1"}
	require.NoError(t, store.Put(ctx, key, []byte("payload"), meta))

	ok, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	content, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))

	info, err := store.GetInfo(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(7), info.Size)
	assert.Equal(t, ComputeChecksum([]byte("payload")), info.Checksum)
	require.NotNil(t, info.Metadata)
	assert.Equal(t, types.SupplierCobeca, info.Metadata.Supplier)

	keys, err := store.List(ctx, "uploads/2026-03-02/run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestKeyToPathStaysUnderBase(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	path := store.keyToPath("../../etc/passwd")
	assert.Equal(t, store.BasePath()+"/etc/passwd", path)
}

func TestBuildExpandedKey(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t,
		"expanded/2026-03-02/r/nena/listas/NENA.xlsx",
		BuildExpandedKey(types.SupplierNena, "r", date, "listas.zip", "NENA.xlsx"))
}

func TestListMissingPrefix(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	keys, err := store.List(context.Background(), "nothing/here")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

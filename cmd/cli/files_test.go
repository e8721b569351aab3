package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmaintel/price-service/internal/pipeline"
	"github.com/farmaintel/price-service/internal/types"
)

func TestSourcesUnreadablePathIsPerSupplier(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "droactiva.csv")
	require.NoError(t, os.WriteFile(good, []byte("DESCRIPCION;BARRA;PRECIO(USD)\n"), 0o644))

	f := addRunFlags(&cobra.Command{Use: "test"})
	*f.paths[types.SupplierDroactiva] = good
	*f.paths[types.SupplierNena] = filepath.Join(dir, "missing.xlsx")

	files, failed, err := f.sources()
	require.NoError(t, err)
	assert.Contains(t, files, types.SupplierDroactiva)
	assert.NotContains(t, files, types.SupplierNena)
	require.Len(t, failed, 1)
	assert.Equal(t, types.SupplierNena, failed[0].Supplier)
	assert.Equal(t, "Nena", failed[0].Label)
	assert.Equal(t, "missing.xlsx", failed[0].Filename)
	assert.NotEmpty(t, failed[0].Error)
}

func TestSourcesNothingReadable(t *testing.T) {
	f := addRunFlags(&cobra.Command{Use: "test"})
	*f.paths[types.SupplierCobeca] = filepath.Join(t.TempDir(), "missing.xlsx")

	_, failed, err := f.sources()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no supplier file could be read")
	assert.Len(t, failed, 1)

	_, _, err = addRunFlags(&cobra.Command{Use: "test"}).sources()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--droactiva")
}

func TestMergeReportsKeepsDeclarationOrder(t *testing.T) {
	merged := mergeReports(
		[]pipeline.SupplierReport{{Supplier: types.SupplierDroactiva}, {Supplier: types.SupplierP365}},
		[]pipeline.SupplierReport{{Supplier: types.SupplierNena, Error: "missing"}},
	)

	require.Len(t, merged, 3)
	assert.Equal(t, types.SupplierDroactiva, merged[0].Supplier)
	assert.Equal(t, types.SupplierNena, merged[1].Supplier)
	assert.Equal(t, types.SupplierP365, merged[2].Supplier)
}

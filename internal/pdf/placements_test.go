package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkswift/mcp-pdf-signer/internal/signature"
)

func TestSidecarAndSignedPath(t *testing.T) {
	assert.Equal(t, "/docs/lease.fields.yaml", SidecarPath("/docs/lease.pdf"))
	assert.Equal(t, "/docs/lease.signed.pdf", SignedPath("/docs/lease.PDF"))
}

func TestPlacementStore_RoundTrip(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "lease.pdf")
	store := NewPlacementStore()

	fields, err := store.Load(doc)
	require.NoError(t, err)
	assert.Empty(t, fields)

	f := signature.SignatureField{ID: "x", Page: 2, X: 10, Y: 20, Width: 180, Height: 60, Rotation: 15,
		Image: "aGVsbG8=", ImageFormat: signature.FormatPNG}
	total, replaced, err := store.Add(doc, f)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.False(t, replaced)

	fields, err = store.Load(doc)
	require.NoError(t, err)
	assert.Equal(t, []signature.SignatureField{f}, fields)
	assert.Equal(t, 1, store.Count(doc))

	data, err := os.ReadFile(SidecarPath(doc))
	require.NoError(t, err)
	assert.Contains(t, string(data), "document: lease.pdf")
	assert.Contains(t, string(data), "image_format: png")
	assert.NoFileExists(t, SidecarPath(doc)+".tmp")
}

func TestPlacementStore_BrokenSidecar(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "x.pdf")
	require.NoError(t, os.WriteFile(SidecarPath(doc), []byte("fields: [unclosed"), 0o600))

	store := NewPlacementStore()
	_, err := store.Load(doc)
	assert.ErrorContains(t, err, "failed to parse placements")
	assert.Equal(t, 0, store.Count(doc))

	_, _, err = store.Add(doc, signature.SignatureField{ID: "a"})
	assert.Error(t, err)
}

func TestPlacementStore_ClearMissing(t *testing.T) {
	removed, err := NewPlacementStore().Clear(filepath.Join(t.TempDir(), "none.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestPlacementStore_RemoveKeepsLaterFields(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "lease.pdf")
	store := NewPlacementStore()

	a := signature.SignatureField{ID: "a", Page: 1, Width: 180, Height: 60, Image: "aGVsbG8=", ImageFormat: signature.FormatPNG}
	b := a
	b.ID = "b"
	_, _, err := store.Add(doc, a)
	require.NoError(t, err)
	_, _, err = store.Add(doc, b)
	require.NoError(t, err)

	loaded, err := store.Load(doc)
	require.NoError(t, err)

	// placed after loading: a new field and a moved b
	c := a
	c.ID = "c"
	_, _, err = store.Add(doc, c)
	require.NoError(t, err)
	movedB := b
	movedB.X = 300
	_, replaced, err := store.Add(doc, movedB)
	require.NoError(t, err)
	require.True(t, replaced)

	remaining, err := store.Remove(doc, loaded)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)

	fields, err := store.Load(doc)
	require.NoError(t, err)
	assert.Equal(t, []signature.SignatureField{movedB, c}, fields)

	remaining, err = store.Remove(doc, fields)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
	assert.NoFileExists(t, SidecarPath(doc))
}

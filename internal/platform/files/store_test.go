package files

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	data := []byte("%PDF-1.7 fake")
	ref, err := store.Put("Homework 1 (final).PDF", data)
	require.NoError(t, err)

	// Refs keep a sluggified trace of the original name but stay flat.
	assert.True(t, strings.HasSuffix(ref, ".pdf"), "ref %q", ref)
	assert.NotContains(t, ref, "/")
	assert.NotContains(t, ref, " ")

	got, err := store.Get(ref)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// Two uploads of the same name get distinct refs.
	ref2, err := store.Put("Homework 1 (final).PDF", data)
	require.NoError(t, err)
	assert.NotEqual(t, ref, ref2)
}

func TestDiskStoreGetRejectsPathEscape(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	for _, ref := range []string{"../secret", "a/b.pdf", "/etc/passwd"} {
		_, err := store.Get(ref)
		assert.Error(t, err, "ref %q", ref)
	}
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "my-essay.pdf", safeName("My Essay.PDF"))
	assert.Equal(t, "file", safeName("???"))
	assert.Equal(t, "b.pdf", safeName("../a/b.pdf"))
}

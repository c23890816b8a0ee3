package mediacache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	return c
}

func TestCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)
	data := []byte("\x89PNG fake bytes")

	written, err := c.Write("Data", "img_1.png", data, "id-1")
	require.NoError(t, err)
	assert.NotEmpty(t, written.ETag)

	entry, ok, err := c.Read("Data", "img_1.png", "id-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, data, entry.Data)
	assert.Equal(t, written.ETag, entry.ETag)
	assert.Equal(t, "id-1", entry.Identity)

	_, ok, err = c.Read("Data", "img_1.png", "id-2")
	require.NoError(t, err)
	assert.False(t, ok, "a different identity must miss")
}

func TestCacheReadWithoutSidecarMisses(t *testing.T) {
	c := newTestCache(t)
	dir := filepath.Join(c.Root(), "Data")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img_1.png"), []byte("png"), 0o644))

	_, ok, err := c.Read("Data", "img_1.png", "id-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheRejectsUnsafeNames(t *testing.T) {
	c := newTestCache(t)

	_, _, err := c.Read("..", "img_1.png", "id")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = c.Write("Data", "../img_1.png", []byte("x"), "id")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = c.Write("Data", "img_0.png", []byte("x"), "id")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestInvalidateStale(t *testing.T) {
	c := newTestCache(t)
	for _, category := range []string{"Data", "Other"} {
		for _, name := range []string{"img_1.png", "img_2.png"} {
			_, err := c.Write(category, name, []byte(category+name), "old")
			require.NoError(t, err)
		}
	}
	keep := filepath.Join(c.Root(), "Other", "README.txt")
	require.NoError(t, os.WriteFile(keep, []byte("not ours"), 0o644))

	report, err := c.InvalidateStale("old", "new")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Data", "Other"}, report.CleanedDirs)
	assert.Equal(t, 4, report.ImagesRemoved)
	assert.Equal(t, 4, report.MetaRemoved)

	_, err = os.Stat(filepath.Join(c.Root(), "Data"))
	assert.True(t, os.IsNotExist(err), "emptied category directory should be removed")
	_, err = os.Stat(keep)
	assert.NoError(t, err, "unrelated files must survive")

	_, ok, err := c.Read("Other", "img_1.png", "old")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidateStaleNoop(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Write("Data", "img_1.png", []byte("x"), "same")
	require.NoError(t, err)

	for _, old := range []string{"", "same"} {
		report, err := c.InvalidateStale(old, "same")
		require.NoError(t, err)
		assert.Empty(t, report.CleanedDirs)
	}

	_, ok, err := c.Read("Data", "img_1.png", "same")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLastBuiltIdentityPersists(t *testing.T) {
	root := t.TempDir()
	c, err := New(root, nil)
	require.NoError(t, err)
	assert.Empty(t, c.LastBuiltIdentity())

	require.NoError(t, c.StoreLastBuiltIdentity("book|1|2"))
	assert.Equal(t, "book|1|2", c.LastBuiltIdentity())

	reopened, err := New(root, nil)
	require.NoError(t, err)
	assert.Equal(t, "book|1|2", reopened.LastBuiltIdentity())
}

func TestETagChangesWithIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img_1.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))

	a, err := ETag(path, "id-a", "img_1.png")
	require.NoError(t, err)
	b, err := ETag(path, "id-b", "img_1.png")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^W/"[0-9a-f]+-[0-9a-f]+-[0-9a-f]{16}"$`, a)
}

package artcatalog

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/mediacache"
)

// testSheet describes a worksheet of a generated workbook.
type testSheet struct {
	Name     string
	Pictures int
	Unknown  bool
}

var testPalette = []color.RGBA{
	{R: 255, A: 255},
	{G: 255, A: 255},
	{B: 255, A: 255},
	{R: 255, G: 255, A: 255},
	{R: 255, B: 255, A: 255},
	{G: 255, B: 255, A: 255},
}

// solidPNG returns a small PNG. Distinct colors keep excelize from
// deduplicating the media parts.
func solidPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// buildWorkbook generates xlsx bytes. The default "Sheet1" of a new file is
// kept so placeholder skipping is exercised.
func buildWorkbook(t *testing.T, sheets ...testSheet) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	next := 0
	for _, sheet := range sheets {
		if sheet.Name != "Sheet1" {
			_, err := f.NewSheet(sheet.Name)
			require.NoError(t, err)
		}
		for i := 0; i < sheet.Pictures; i++ {
			data := solidPNG(t, testPalette[next%len(testPalette)])
			next++
			cell, err := excelize.CoordinatesToCellName(1, 1+i*10)
			require.NoError(t, err)
			require.NoError(t, f.AddPictureFromBytes(sheet.Name, cell, &excelize.Picture{Extension: ".png", File: data}))
		}
		if sheet.Unknown {
			require.NoError(t, f.SetCellStr(sheet.Name, "B2", "#UNKNOWN!"))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// replacePart rewrites one part of a zip package.
func replacePart(t *testing.T, data []byte, name string, content []byte) []byte {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var out bytes.Buffer
	w := zip.NewWriter(&out)
	found := false
	for _, file := range r.File {
		dst, err := w.Create(file.Name)
		require.NoError(t, err)
		if file.Name == name {
			found = true
			_, err = dst.Write(content)
			require.NoError(t, err)
			continue
		}
		src, err := file.Open()
		require.NoError(t, err)
		_, err = io.Copy(dst, src)
		require.NoError(t, err)
		require.NoError(t, src.Close())
	}
	require.NoError(t, w.Close())
	require.True(t, found, "part %s not in package", name)
	return out.Bytes()
}

// writeWorkbook writes data to path and moves its mtime forward so every
// rewrite yields a new identity even on coarse-grained filesystems.
func writeWorkbook(t *testing.T, path string, data []byte) {
	t.Helper()
	var mtime time.Time
	if info, err := os.Stat(path); err == nil {
		mtime = info.ModTime().Add(time.Second)
	} else {
		mtime = time.Now()
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type testEnv struct {
	service   *Service
	media     *mediacache.Cache
	workbook  string
	clock     *fakeClock
	cacheRoot string
}

func newLocalEnv(t *testing.T, data []byte) *testEnv {
	t.Helper()
	dir := t.TempDir()
	workbook := filepath.Join(dir, "catalog.xlsx")
	writeWorkbook(t, workbook, data)

	cacheRoot := filepath.Join(dir, "cache")
	media, err := mediacache.New(cacheRoot, nil)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc, err := New(Options{
		Mode:      SourceLocal,
		LocalPath: workbook,
		Media:     media,
		Now:       clock.Now,
	})
	require.NoError(t, err)

	return &testEnv{service: svc, media: media, workbook: workbook, clock: clock, cacheRoot: cacheRoot}
}

type staticFetcher struct {
	data  []byte
	err   error
	calls int
}

func (f *staticFetcher) Download(context.Context) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

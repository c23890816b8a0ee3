package parser

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func TestToPNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	src.Set(1, 1, color.RGBA{G: 200, A: 255})
	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, src, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}

	out, err := ToPNG(jpg.Bytes())
	if err != nil {
		t.Fatalf("ToPNG failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a png: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 8 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
}

func TestToPNGDeterministic(t *testing.T) {
	raw := solidPNG(t, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	first, err := ToPNG(raw)
	if err != nil {
		t.Fatalf("ToPNG failed: %v", err)
	}
	second, err := ToPNG(raw)
	if err != nil {
		t.Fatalf("ToPNG failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("expected identical output for identical input")
	}
}

func TestToPNGUndecodable(t *testing.T) {
	if _, err := ToPNG([]byte("\x01\x00\x00\x00EMF")); err == nil {
		t.Error("expected an error for an undecodable blob")
	}
}

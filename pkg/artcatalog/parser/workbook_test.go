package parser

import (
	"bytes"
	"errors"
	"image/color"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestWorkbookPictures(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet("Data"); err != nil {
		t.Fatalf("NewSheet failed: %v", err)
	}
	red := solidPNG(t, color.RGBA{R: 255, A: 255})
	blue := solidPNG(t, color.RGBA{B: 255, A: 255})
	for cell, data := range map[string][]byte{"A1": red, "D5": blue} {
		pic := &excelize.Picture{Extension: ".png", File: data}
		if err := f.AddPictureFromBytes("Data", cell, pic); err != nil {
			t.Fatalf("AddPictureFromBytes(%s) failed: %v", cell, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer failed: %v", err)
	}

	wb, err := OpenWorkbook(buf.Bytes())
	if err != nil {
		t.Fatalf("OpenWorkbook failed: %v", err)
	}
	defer wb.Close()

	names := wb.SheetNames()
	if len(names) != 2 || names[0] != "Sheet1" || names[1] != "Data" {
		t.Fatalf("unexpected sheet names %v", names)
	}

	pics, err := wb.Pictures("Data")
	if err != nil {
		t.Fatalf("Pictures failed: %v", err)
	}
	if len(pics) != 2 {
		t.Fatalf("expected 2 pictures, got %d", len(pics))
	}
	for _, pic := range pics {
		if !bytes.Equal(pic.Data, red) && !bytes.Equal(pic.Data, blue) {
			t.Errorf("picture at %s does not match an inserted image", pic.Cell)
		}
	}

	empty, err := wb.Pictures("Sheet1")
	if err != nil {
		t.Fatalf("Pictures(Sheet1) failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no pictures on Sheet1, got %d", len(empty))
	}

	report, err := AnalyzePackage(buf.Bytes())
	if err != nil {
		t.Fatalf("AnalyzePackage failed: %v", err)
	}
	data := report.Sheets["Data"]
	if data == nil || data.DrawingPictures != 2 || data.DrawingObjects != 2 || data.EmbeddedImageRefs != 2 {
		t.Errorf("unexpected static diagnostics for Data: %+v", data)
	}
	if report.UnmappedMedia != 0 {
		t.Errorf("expected no unmapped media, got %d", report.UnmappedMedia)
	}
}

func TestOpenWorkbookInvalid(t *testing.T) {
	if _, err := OpenWorkbook([]byte("nope")); err == nil {
		t.Error("expected an error for invalid workbook bytes")
	}
}

type fakePictureReader struct {
	cells    []string
	pictures map[string][]excelize.Picture
	failures map[string]error
}

func (r *fakePictureReader) GetPictureCells(string) ([]string, error) {
	return r.cells, nil
}

func (r *fakePictureReader) GetPictures(_, cell string) ([]excelize.Picture, error) {
	if err := r.failures[cell]; err != nil {
		return nil, err
	}
	return r.pictures[cell], nil
}

func TestCollectPicturesSkipsUnreadableCells(t *testing.T) {
	errB2 := errors.New("bad anchor")
	errE5 := errors.New("missing media")
	r := &fakePictureReader{
		cells: []string{"A1", "B2", "C3", "A1", "E5"},
		pictures: map[string][]excelize.Picture{
			"A1": {{Extension: ".png", File: []byte("a")}},
			"C3": {{Extension: ".jpg", File: []byte("c1")}, {Extension: ".png", File: []byte("c2")}},
		},
		failures: map[string]error{"B2": errB2, "E5": errE5},
	}

	pics, err := collectPictures(r, "Data")
	if err == nil {
		t.Fatal("expected a joined error for unreadable cells")
	}
	if !errors.Is(err, errB2) || !errors.Is(err, errE5) {
		t.Errorf("joined error should wrap both cell failures: %v", err)
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok || len(joined.Unwrap()) != 2 {
		t.Errorf("expected 2 joined failures, got %v", err)
	}

	var got []string
	for _, pic := range pics {
		got = append(got, pic.Cell+":"+string(pic.Data))
	}
	want := []string{"A1:a", "C3:c1", "C3:c2"}
	if len(got) != len(want) {
		t.Fatalf("expected pictures %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("picture %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

package pdfimport

import (
	"bytes"
	"testing"
)

func TestPageImagesRejectsPageZero(t *testing.T) {
	if _, err := PageImages(bytes.NewReader(nil), 0); err == nil {
		t.Fatal("expected page 0 to be rejected")
	}
}

func TestLargestRejectsNonPDF(t *testing.T) {
	if _, err := Largest(bytes.NewReader([]byte("not a pdf")), 1); err == nil {
		t.Fatal("expected an error for a non-PDF input")
	}
}

func TestArea(t *testing.T) {
	if got := area(Image{Width: 30, Height: 20}); got != 600 {
		t.Fatalf("area = %d", got)
	}
}

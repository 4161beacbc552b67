package analysis

import (
	"strings"
	"testing"
)

func TestCentroidsCSV(t *testing.T) {
	centroids := []Centroid{
		{ID: 1, X: 24.5, Y: 24.5, Level: 0, Area: 100},
		{ID: 2, X: 31.75, Y: 8, Level: 1, Area: 42},
	}

	got, err := CentroidsCSV(centroids)
	if err != nil {
		t.Fatalf("CentroidsCSV failed: %v", err)
	}

	want := "id,x,y,level,area\n" +
		"1,24.50,24.50,0,100\n" +
		"2,31.75,8.00,1,42\n"
	if got != want {
		t.Errorf("CSV mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestCentroidsCSV_Empty(t *testing.T) {
	got, err := CentroidsCSV(nil)
	if err != nil {
		t.Fatalf("CentroidsCSV failed: %v", err)
	}
	if got != "id,x,y,level,area\n" {
		t.Errorf("empty export should be header only, got %q", got)
	}
}

func TestWriteReferencePointsCSV(t *testing.T) {
	points := []ReferencePoint{
		{X: 10.5, Y: 20},
		{X: 0, Y: 0},
	}

	var b strings.Builder
	if err := WriteReferencePointsCSV(&b, points); err != nil {
		t.Fatalf("WriteReferencePointsCSV failed: %v", err)
	}

	want := "id,x,y\n" +
		"1,10.50,20.00\n" +
		"2,0.00,0.00\n"
	if got := b.String(); got != want {
		t.Errorf("CSV mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteCentroidsCSV writes centroids as CSV with a header row of
// id,x,y,level,area. Rows follow the stable ID order of the result.
// Coordinates are written with two decimal places, which is finer than the
// half-pixel uncertainty of the underlying detection.
func WriteCentroidsCSV(w io.Writer, centroids []Centroid) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "x", "y", "level", "area"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, c := range centroids {
		record := []string{
			strconv.Itoa(c.ID),
			strconv.FormatFloat(c.X, 'f', 2, 64),
			strconv.FormatFloat(c.Y, 'f', 2, 64),
			strconv.Itoa(c.Level),
			strconv.Itoa(c.Area),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", c.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CentroidsCSV renders centroids to a CSV string.
func CentroidsCSV(centroids []Centroid) (string, error) {
	var b strings.Builder
	if err := WriteCentroidsCSV(&b, centroids); err != nil {
		return "", err
	}
	return b.String(), nil
}

// WriteReferencePointsCSV writes operator reference points as CSV with a
// header row of id,x,y. IDs are 1-based positions in the input slice; the
// points themselves are passed through exactly as given.
func WriteReferencePointsCSV(w io.Writer, points []ReferencePoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "x", "y"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, p := range points {
		record := []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(p.X, 'f', 2, 64),
			strconv.FormatFloat(p.Y, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

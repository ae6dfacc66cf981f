// Package export writes extraction results to disk and, optionally, to a
// MongoDB collection.
//
// The on-disk layout mirrors the source archive: for an input chart
// chart1.pdf with patient ID 42, the trace table lands in chart1_42.csv and
// the metadata in chart1_42_annotations.txt, both under the configured
// output directory.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ekglab/ekgstore/pkg/errors"
	"github.com/ekglab/ekgstore/pkg/extract"
	"github.com/ekglab/ekgstore/pkg/metadata"
)

// csvHeader is the column layout of the trace table. One row per sample,
// grouped by lead in extraction order.
var csvHeader = []string{"lead", "absoluteX", "absoluteY", "actual_X", "actual_Y"}

// Writer writes result files under Dir, creating it on first use.
type Writer struct {
	Dir string
}

// BaseName derives the output stem for a source file: the file name without
// its extension, suffixed with the patient ID.
func BaseName(srcPath, id string) string {
	base := filepath.Base(srcPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + "_" + id
}

// WriteCSV writes the trace table for base and returns the written path.
func (w Writer) WriteCSV(base string, res *extract.Result) (string, error) {
	path := filepath.Join(w.Dir, base+".csv")
	f, err := w.create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	for _, lead := range res.Leads {
		for i := range lead.AbsX {
			row := []string{
				lead.Label,
				formatFloat(lead.AbsX[i]),
				formatFloat(lead.AbsY[i]),
				formatFloat(lead.ActualX[i]),
				formatFloat(lead.ActualY[i]),
			}
			if err := cw.Write(row); err != nil {
				return "", errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return path, nil
}

// WriteAnnotations writes the metadata record for base as "key: value"
// lines in sorted key order and returns the written path.
func (w Writer) WriteAnnotations(base string, meta metadata.Record) (string, error) {
	path := filepath.Join(w.Dir, base+"_annotations.txt")
	f, err := w.create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := fmt.Fprintf(f, "%s: %s\n", k, meta[k]); err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
		}
	}
	return path, nil
}

func (w Writer) create(path string) (*os.File, error) {
	if w.Dir != "" {
		if err := os.MkdirAll(w.Dir, 0755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "create output dir %s", w.Dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	return f, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

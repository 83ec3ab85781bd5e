// Package report renders a finished pricing run. It only consumes the
// result; no numbers are computed here.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/contactkeval/option-pde/internal/pde"
)

// WriteJSON writes the full result as indented JSON to outdir/result.json.
func WriteJSON(res *pde.Result, outdir string) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, "result.json"), b, 0644)
}

// WriteCSV writes the price surfaces side by side to outdir/surface.csv:
// one row per grid node with both schemes, the closed-form reference and
// per-node absolute errors. Columns for schemes that did not run are left
// empty.
func WriteCSV(res *pde.Result, outdir string) error {
	f, err := os.Create(filepath.Join(outdir, "surface.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	headers := []string{"s", "explicit", "implicit", "reference", "abs_err_explicit", "abs_err_implicit"}
	if err := w.Write(headers); err != nil {
		return err
	}
	for k, s := range res.S {
		row := []string{
			fmt.Sprintf("%.4f", s),
			surfaceCell(res.Explicit, k),
			surfaceCell(res.Implicit, k),
			fmt.Sprintf("%.6f", res.Reference[k]),
			errCell(res.Explicit, res.Reference, k),
			errCell(res.Implicit, res.Reference, k),
		}
		_ = w.Write(row)
	}
	return nil
}

func surfaceCell(v []float64, k int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.6f", v[k])
}

func errCell(v, ref []float64, k int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.6f", math.Abs(v[k]-ref[k]))
}

// Package features projects flattened waveform vectors onto their leading
// principal components. The projection is the feature space that
// clustering and classification operate in.
package features

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrDegenerate reports input with too little data to support a principal
// component analysis. Callers that can tolerate it (such as the merge
// test) downgrade it to a negative answer instead of failing.
var ErrDegenerate = errors.New("features: degenerate input")

// Projection holds a fitted PCA basis: the column means used for
// centering and one direction vector per component. The exported fields
// make a fitted projection directly serializable.
type Projection struct {
	Mean       []float64   `json:"mean"`
	Components [][]float64 `json:"components"`
}

// NumComponents returns the number of fitted components.
func (p *Projection) NumComponents() int {
	return len(p.Components)
}

// Fit computes the leading principal components of the rows. The
// component count is clamped to what the data supports (at most
// min(rows, dims)); fewer than two rows cannot constrain any direction
// and yields ErrDegenerate.
func Fit(rows [][]float64, numComponents int) (*Projection, error) {
	if numComponents <= 0 {
		return nil, fmt.Errorf("invalid component count: %d", numComponents)
	}
	n := len(rows)
	if n < 2 {
		return nil, fmt.Errorf("%w: %d rows", ErrDegenerate, n)
	}
	d := len(rows[0])
	if d == 0 {
		return nil, fmt.Errorf("%w: empty rows", ErrDegenerate)
	}
	for i, row := range rows {
		if len(row) != d {
			return nil, fmt.Errorf("ragged input: row %d has %d values, expected %d", i, len(row), d)
		}
	}

	k := numComponents
	if k > n {
		k = n
	}
	if k > d {
		k = d
	}

	x := mat.NewDense(n, d, nil)
	for i, row := range rows {
		x.SetRow(i, row)
	}

	var pc stat.PC
	if !pc.PrincipalComponents(x, nil) {
		return nil, fmt.Errorf("%w: principal components failed", ErrDegenerate)
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	mean := make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, x)
		mean[j] = stat.Mean(col, nil)
	}

	components := make([][]float64, k)
	for i := 0; i < k; i++ {
		comp := make([]float64, d)
		for j := 0; j < d; j++ {
			comp[j] = vecs.At(j, i)
		}
		components[i] = comp
	}

	return &Projection{Mean: mean, Components: components}, nil
}

// Transform centers the rows with the fitted means and projects them onto
// the components, returning one feature vector per row.
func (p *Projection) Transform(rows [][]float64) ([][]float64, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	d := len(p.Mean)
	k := len(p.Components)

	centered := mat.NewDense(len(rows), d, nil)
	for i, row := range rows {
		if len(row) != d {
			return nil, fmt.Errorf("row %d has %d values, projection expects %d", i, len(row), d)
		}
		for j, v := range row {
			centered.Set(i, j, v-p.Mean[j])
		}
	}

	basis := mat.NewDense(d, k, nil)
	for i, comp := range p.Components {
		for j := 0; j < d; j++ {
			basis.Set(j, i, comp[j])
		}
	}

	var proj mat.Dense
	proj.Mul(centered, basis)

	out := make([][]float64, len(rows))
	for i := range out {
		out[i] = mat.Row(nil, i, &proj)
	}
	return out, nil
}

// Compute fits a projection to the rows and returns their feature
// vectors in one step.
func Compute(rows [][]float64, numComponents int) ([][]float64, error) {
	projection, err := Fit(rows, numComponents)
	if err != nil {
		return nil, err
	}
	return projection.Transform(rows)
}

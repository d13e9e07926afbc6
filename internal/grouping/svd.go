package grouping

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Randomized range finder parameters. The seed is fixed so a bucket always
// reduces to the same vectors.
const (
	svdOversamples = 10
	svdPowerIters  = 5
	svdSeed        = 42
)

// truncatedSVD projects rows onto approximately the k leading right singular
// vectors of the matrix X they form and returns X*V_k. The basis comes from a
// seeded randomized range finder, so the work is linear in the number of
// non-zero weights plus one SVD of a width x (k+10) matrix. ok is false when
// that factorization does not converge.
func truncatedSVD(rows []sparseRow, width, k int) ([][]float64, bool) {
	l := min(k+svdOversamples, len(rows), width)
	if l < 1 {
		return nil, false
	}
	k = min(k, l)

	rng := rand.New(rand.NewPCG(svdSeed, svdSeed))
	omega := mat.NewDense(width, l, nil)
	for i := range width {
		row := omega.RawRowView(i)
		for j := range row {
			row[j] = rng.NormFloat64()
		}
	}

	q := mulRows(rows, omega)
	orthonormalize(q)
	for range svdPowerIters {
		z := mulRowsT(rows, q, width)
		orthonormalize(z)
		q = mulRows(rows, z)
		orthonormalize(q)
	}

	// X^T*Q is the transpose of the small projection Q^T*X, so its left
	// singular vectors are the right singular vectors of X restricted to Q.
	var svd mat.SVD
	if !svd.Factorize(mulRowsT(rows, q, width), mat.SVDThin) {
		return nil, false
	}
	var v mat.Dense
	svd.UTo(&v)

	reduced := mulRows(rows, v.Slice(0, width, 0, k).(*mat.Dense))
	out := make([][]float64, len(rows))
	for i := range out {
		out[i] = mat.Row(nil, i, reduced)
	}
	return out, true
}

// mulRows returns X*m.
func mulRows(rows []sparseRow, m *mat.Dense) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, r := range rows {
		dst := out.RawRowView(i)
		for p, col := range r.cols {
			floats.AddScaled(dst, r.vals[p], m.RawRowView(col))
		}
	}
	return out
}

// mulRowsT returns X^T*m for an m with one row per document.
func mulRowsT(rows []sparseRow, m *mat.Dense, width int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(width, c, nil)
	for i, r := range rows {
		src := m.RawRowView(i)
		for p, col := range r.cols {
			floats.AddScaled(out.RawRowView(col), r.vals[p], src)
		}
	}
	return out
}

// orthonormalize replaces the columns of m with an orthonormal basis of their
// span (modified Gram-Schmidt, applied twice). Columns that are numerically
// dependent on earlier ones are zeroed.
func orthonormalize(m *mat.Dense) {
	_, c := m.Dims()
	basis := make([][]float64, 0, c)
	for j := range c {
		v := mat.Col(nil, j, m)
		orig := floats.Norm(v, 2)
		for range 2 {
			for _, b := range basis {
				floats.AddScaled(v, -floats.Dot(b, v), b)
			}
		}
		if norm := floats.Norm(v, 2); norm > 0 && norm > 1e-10*orig {
			floats.Scale(1/norm, v)
			basis = append(basis, v)
		} else {
			clear(v)
		}
		m.SetCol(j, v)
	}
}

package encoding

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a row-compressed sparse matrix. Zeros are implicit; NaN is
// stored like any other non-zero value.
type Matrix struct {
	rows, cols int
	indptr     []int
	indices    []int
	data       []float64
}

// MatrixBuilder appends rows to a Matrix. Column indices within a row must be
// strictly increasing.
type MatrixBuilder struct {
	m    *Matrix
	last int
}

// NewMatrixBuilder starts a matrix with the given column count
func NewMatrixBuilder(cols int) *MatrixBuilder {
	return &MatrixBuilder{m: &Matrix{cols: cols, indptr: []int{0}}, last: -1}
}

// Set stores v at column j of the current row; zeros are skipped
func (b *MatrixBuilder) Set(j int, v float64) {
	if j <= b.last || j >= b.m.cols {
		panic(fmt.Sprintf("encoding: column %d out of order or range", j))
	}
	b.last = j
	if v == 0 {
		return
	}
	b.m.indices = append(b.m.indices, j)
	b.m.data = append(b.m.data, v)
}

// EndRow closes the current row
func (b *MatrixBuilder) EndRow() {
	b.m.rows++
	b.m.indptr = append(b.m.indptr, len(b.m.indices))
	b.last = -1
}

// Matrix returns the built matrix
func (b *MatrixBuilder) Matrix() *Matrix {
	return b.m
}

// NewMatrixFromDense builds a sparse matrix from dense rows
func NewMatrixFromDense(rows [][]float64) *Matrix {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	b := NewMatrixBuilder(cols)
	for _, r := range rows {
		if len(r) != cols {
			panic("encoding: ragged rows")
		}
		for j, v := range r {
			b.Set(j, v)
		}
		b.EndRow()
	}
	return b.Matrix()
}

// Rows returns the number of rows
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns
func (m *Matrix) Cols() int { return m.cols }

// NNZ returns the number of stored values
func (m *Matrix) NNZ() int { return len(m.data) }

// Row returns the stored column indices and values of row i. The slices
// alias the matrix and must not be modified.
func (m *Matrix) Row(i int) ([]int, []float64) {
	lo, hi := m.indptr[i], m.indptr[i+1]
	return m.indices[lo:hi], m.data[lo:hi]
}

// At returns the value at row i, column j
func (m *Matrix) At(i, j int) float64 {
	idx, vals := m.Row(i)
	k := sort.SearchInts(idx, j)
	if k < len(idx) && idx[k] == j {
		return vals[k]
	}
	return 0
}

// DenseRow expands row i
func (m *Matrix) DenseRow(i int) []float64 {
	out := make([]float64, m.cols)
	idx, vals := m.Row(i)
	for k, j := range idx {
		out[j] = vals[k]
	}
	return out
}

// Dense expands the whole matrix
func (m *Matrix) Dense() *mat.Dense {
	if m.rows == 0 || m.cols == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(m.rows, m.cols, nil)
	for i := 0; i < m.rows; i++ {
		idx, vals := m.Row(i)
		for k, j := range idx {
			d.Set(i, j, vals[k])
		}
	}
	return d
}

// HasNaN reports whether any stored value is NaN or infinite
func (m *Matrix) HasNaN() bool {
	for _, v := range m.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// SelectRows returns a matrix holding the rows at idx, in order
func (m *Matrix) SelectRows(idx []int) *Matrix {
	b := NewMatrixBuilder(m.cols)
	for _, i := range idx {
		cols, vals := m.Row(i)
		for k, j := range cols {
			b.Set(j, vals[k])
		}
		b.EndRow()
	}
	return b.Matrix()
}

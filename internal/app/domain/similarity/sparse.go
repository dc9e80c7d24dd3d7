package similarity

import (
	"fmt"
	"math"
	"sort"
)

// SparseEntry is one non-zero component of a sparse vector.
type SparseEntry struct {
	Col int
	Val float64
}

// SparseVector is a column-sorted list of non-zero components.
type SparseVector []SparseEntry

func (v SparseVector) sortByCol() {
	sort.Slice(v, func(i, j int) bool { return v[i].Col < v[j].Col })
}

func (v SparseVector) normalizeL2() {
	var sum float64
	for _, e := range v {
		sum += e.Val * e.Val
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i].Val /= norm
	}
}

// CSRMatrix is a compressed sparse row matrix as emitted by the training
// pipeline. Row i occupies Indices/Data[Indptr[i]:Indptr[i+1]]; rows are
// L2-normalized offline.
type CSRMatrix struct {
	Rows    int       `json:"rows"`
	Cols    int       `json:"cols"`
	Indptr  []int     `json:"indptr"`
	Indices []int     `json:"indices"`
	Data    []float64 `json:"data"`
}

// Validate checks the structural CSR invariants once at load time so the hot
// path can index without bounds anxiety.
func (m *CSRMatrix) Validate() error {
	if len(m.Indptr) != m.Rows+1 {
		return fmt.Errorf("csr indptr length %d does not match rows %d", len(m.Indptr), m.Rows)
	}
	if len(m.Indices) != len(m.Data) {
		return fmt.Errorf("csr indices length %d does not match data length %d", len(m.Indices), len(m.Data))
	}
	nnz := m.Indptr[m.Rows]
	if nnz != len(m.Data) {
		return fmt.Errorf("csr final indptr %d does not match nnz %d", nnz, len(m.Data))
	}
	for i := 0; i < m.Rows; i++ {
		if m.Indptr[i] > m.Indptr[i+1] {
			return fmt.Errorf("csr indptr not monotonic at row %d", i)
		}
	}
	for _, col := range m.Indices {
		if col < 0 || col >= m.Cols {
			return fmt.Errorf("csr column index %d out of range [0,%d)", col, m.Cols)
		}
	}
	return nil
}

// MulVec computes M · qᵀ for a sparse query vector, returning one score per
// row. q must be column-sorted.
func (m *CSRMatrix) MulVec(q SparseVector) []float64 {
	dense := make([]float64, m.Cols)
	for _, e := range q {
		dense[e.Col] = e.Val
	}

	scores := make([]float64, m.Rows)
	for i := 0; i < m.Rows; i++ {
		var dot float64
		for j := m.Indptr[i]; j < m.Indptr[i+1]; j++ {
			dot += m.Data[j] * dense[m.Indices[j]]
		}
		scores[i] = dot
	}
	return scores
}

package training

import (
	"math"
	"sort"

	"github.com/mimir-aip/bigmart-predictor/pkg/mlmodel/encoding"
)

// featureThreshold is the smallest gap between two feature values that is
// considered a split point
const featureThreshold = 1e-7

// Tree is a binary regression tree stored as parallel arrays. Node 0 is the
// root; leaves have Feature -1. A sample goes left when x[Feature] <= Threshold.
type Tree struct {
	Feature   []int     `json:"feature"`
	Threshold []float64 `json:"threshold"`
	Left      []int     `json:"left"`
	Right     []int     `json:"right"`
	Value     []float64 `json:"value"`
}

func (t *Tree) addNode(value float64) int {
	t.Feature = append(t.Feature, -1)
	t.Threshold = append(t.Threshold, 0)
	t.Left = append(t.Left, -1)
	t.Right = append(t.Right, -1)
	t.Value = append(t.Value, value)
	return len(t.Value) - 1
}

// NodeCount returns the number of nodes in the tree
func (t *Tree) NodeCount() int {
	return len(t.Value)
}

// Depth returns the length of the longest root to leaf path
func (t *Tree) Depth() int {
	var walk func(node int) int
	walk = func(node int) int {
		if t.Feature[node] < 0 {
			return 0
		}
		l, r := walk(t.Left[node]), walk(t.Right[node])
		if l > r {
			return l + 1
		}
		return r + 1
	}
	if len(t.Value) == 0 {
		return 0
	}
	return walk(0)
}

// predictRow evaluates one sparse row
func (t *Tree) predictRow(idx []int, vals []float64) float64 {
	node := 0
	for t.Feature[node] >= 0 {
		if sparseAt(idx, vals, t.Feature[node]) <= t.Threshold[node] {
			node = t.Left[node]
		} else {
			node = t.Right[node]
		}
	}
	return t.Value[node]
}

func sparseAt(idx []int, vals []float64, j int) float64 {
	k := sort.SearchInts(idx, j)
	if k < len(idx) && idx[k] == j {
		return vals[k]
	}
	return 0
}

// columnIndex holds, per feature, the rows with a non-zero value sorted by
// that value. Zeros are implicit.
type columnIndex struct {
	rows [][]int
	vals [][]float64
}

type columnSorter struct {
	rows []int
	vals []float64
}

func (c columnSorter) Len() int           { return len(c.rows) }
func (c columnSorter) Less(i, j int) bool { return c.vals[i] < c.vals[j] }
func (c columnSorter) Swap(i, j int) {
	c.rows[i], c.rows[j] = c.rows[j], c.rows[i]
	c.vals[i], c.vals[j] = c.vals[j], c.vals[i]
}

func newColumnIndex(X *encoding.Matrix) *columnIndex {
	c := &columnIndex{
		rows: make([][]int, X.Cols()),
		vals: make([][]float64, X.Cols()),
	}
	for i := 0; i < X.Rows(); i++ {
		idx, vals := X.Row(i)
		for k, j := range idx {
			c.rows[j] = append(c.rows[j], i)
			c.vals[j] = append(c.vals[j], vals[k])
		}
	}
	for j := range c.rows {
		sort.Stable(columnSorter{rows: c.rows[j], vals: c.vals[j]})
	}
	return c
}

// treeBuilder grows squared-error regression trees breadth first. Every
// feature is scanned at every split and the first best split wins ties.
type treeBuilder struct {
	X        *encoding.Matrix
	cols     *columnIndex
	maxDepth int // 0 grows until leaves are pure or hold one sample
}

func newTreeBuilder(X *encoding.Matrix, maxDepth int) *treeBuilder {
	return &treeBuilder{X: X, cols: newColumnIndex(X), maxDepth: maxDepth}
}

type nodeStats struct {
	id    int
	depth int
	count int
	w     float64
	s     float64
	s2    float64
}

func (n *nodeStats) add(w, y float64) {
	n.count++
	n.w += w
	n.s += w * y
	n.s2 += w * y * y
}

func (n *nodeStats) mean() float64 {
	if n.w == 0 {
		return 0
	}
	return n.s / n.w
}

func (n *nodeStats) impurity() float64 {
	m := n.mean()
	return n.s2/n.w - m*m
}

type split struct {
	found     bool
	feature   int
	threshold float64
	proxy     float64
}

// build fits a tree to y where each row counts weight[i] times. Rows with
// zero weight are ignored.
func (b *treeBuilder) build(y, weight []float64) *Tree {
	n := b.X.Rows()
	tree := &Tree{}
	nodeOf := make([]int, n)

	root := nodeStats{}
	for i := 0; i < n; i++ {
		if weight[i] <= 0 {
			nodeOf[i] = -1
			continue
		}
		root.add(weight[i], y[i])
	}
	root.id = tree.addNode(root.mean())

	frontier := []nodeStats{root}
	for len(frontier) > 0 {
		active := make([]bool, len(frontier))
		anyActive := false
		for k := range frontier {
			active[k] = b.splittable(&frontier[k])
			anyActive = anyActive || active[k]
		}
		if !anyActive {
			break
		}

		best := b.findSplits(frontier, active, nodeOf, y, weight)

		var next []nodeStats
		children := make([][2]int, len(frontier))
		for k := range frontier {
			children[k] = [2]int{-1, -1}
			if !active[k] || !best[k].found {
				continue
			}
			parent := frontier[k].id
			left := nodeStats{depth: frontier[k].depth + 1, id: tree.addNode(0)}
			right := nodeStats{depth: frontier[k].depth + 1, id: tree.addNode(0)}
			tree.Feature[parent] = best[k].feature
			tree.Threshold[parent] = best[k].threshold
			tree.Left[parent] = left.id
			tree.Right[parent] = right.id
			children[k] = [2]int{len(next), len(next) + 1}
			next = append(next, left, right)
		}

		for i := 0; i < n; i++ {
			k := nodeOf[i]
			if k < 0 {
				continue
			}
			c := children[k]
			if c[0] < 0 {
				nodeOf[i] = -1
				continue
			}
			side := c[1]
			if b.X.At(i, best[k].feature) <= best[k].threshold {
				side = c[0]
			}
			nodeOf[i] = side
			next[side].add(weight[i], y[i])
		}
		for k := range next {
			tree.Value[next[k].id] = next[k].mean()
		}
		frontier = next
	}
	return tree
}

func (b *treeBuilder) splittable(n *nodeStats) bool {
	if n.count < 2 {
		return false
	}
	if b.maxDepth > 0 && n.depth >= b.maxDepth {
		return false
	}
	m := n.mean()
	return n.impurity() > 1e-12*(1+m*m)
}

// sweep holds the per-node running state while one feature is scanned
type sweep struct {
	frontier []nodeStats
	best     []split

	nzW, nzS []float64
	nzC      []int

	lw, ls   []float64
	lc       []int
	last     []float64
	zeroDone []bool
	seen     []bool
}

func (sw *sweep) push(k, feature int, v, w, s float64, c int) {
	if sw.lc[k] > 0 && v > sw.last[k]+featureThreshold {
		nd := &sw.frontier[k]
		rw, rs := nd.w-sw.lw[k], nd.s-sw.ls[k]
		if rw > 0 {
			proxy := sw.ls[k]*sw.ls[k]/sw.lw[k] + rs*rs/rw
			if proxy > sw.best[k].proxy {
				threshold := sw.last[k]/2 + v/2
				if threshold == v || math.IsInf(threshold, 0) {
					threshold = sw.last[k]
				}
				sw.best[k] = split{found: true, feature: feature, threshold: threshold, proxy: proxy}
			}
		}
	}
	sw.lw[k] += w
	sw.ls[k] += s
	sw.lc[k] += c
	sw.last[k] = v
}

// pushZeros adds the implicit zero rows of node k
func (sw *sweep) pushZeros(k, feature int) {
	sw.zeroDone[k] = true
	nd := &sw.frontier[k]
	c := nd.count - sw.nzC[k]
	if c > 0 {
		sw.push(k, feature, 0, nd.w-sw.nzW[k], nd.s-sw.nzS[k], c)
	}
}

// findSplits returns the best split of every active node. Two passes per
// feature: the first totals the non-zero rows of each node so the implicit
// zero block can be placed between negative and positive values in the
// second, sorted pass.
func (b *treeBuilder) findSplits(frontier []nodeStats, active []bool, nodeOf []int, y, weight []float64) []split {
	m := len(frontier)
	sw := &sweep{
		frontier: frontier,
		best:     make([]split, m),
		nzW:      make([]float64, m),
		nzS:      make([]float64, m),
		nzC:      make([]int, m),
		lw:       make([]float64, m),
		ls:       make([]float64, m),
		lc:       make([]int, m),
		last:     make([]float64, m),
		zeroDone: make([]bool, m),
		seen:     make([]bool, m),
	}
	for k := range sw.best {
		sw.best[k].proxy = math.Inf(-1)
	}

	var touched []int
	for f := range b.cols.rows {
		rows, vals := b.cols.rows[f], b.cols.vals[f]
		touched = touched[:0]

		for _, r := range rows {
			k := nodeOf[r]
			if k < 0 || !active[k] {
				continue
			}
			if !sw.seen[k] {
				sw.seen[k] = true
				touched = append(touched, k)
				sw.nzW[k], sw.nzS[k], sw.nzC[k] = 0, 0, 0
				sw.lw[k], sw.ls[k], sw.lc[k] = 0, 0, 0
				sw.zeroDone[k] = false
			}
			sw.nzW[k] += weight[r]
			sw.nzS[k] += weight[r] * y[r]
			sw.nzC[k]++
		}

		for e, r := range rows {
			k := nodeOf[r]
			if k < 0 || !active[k] {
				continue
			}
			v := vals[e]
			if v > 0 && !sw.zeroDone[k] {
				sw.pushZeros(k, f)
			}
			sw.push(k, f, v, weight[r], weight[r]*y[r], 1)
		}

		for _, k := range touched {
			if !sw.zeroDone[k] {
				sw.pushZeros(k, f)
			}
			sw.seen[k] = false
		}
	}
	return sw.best
}

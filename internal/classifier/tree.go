package classifier

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"stockDecoder/internal/domain"
)

// DefaultMaxDepth bounds recursion when Config.MaxDepth is not set.
const DefaultMaxDepth = 32

// gainEpsilon absorbs floating point noise when comparing information gains.
const gainEpsilon = 1e-12

// Node is either a leaf carrying a Label or an internal split.
// Left holds examples with feature <= Threshold, Right those above it.
// Children are owned exclusively by their parent.
type Node struct {
	Label     domain.Label
	Feature   domain.Feature
	Threshold float64
	Gain      float64
	Samples   int
	Left      *Node
	Right     *Node
}

// IsLeaf reports whether the node carries a label instead of a split.
func (n *Node) IsLeaf() bool {
	return n.Left == nil && n.Right == nil
}

// Tree is an immutable binary decision tree.
type Tree struct {
	Root       *Node
	Dimensions int // Length of the feature vectors the tree was trained on
}

// Depth returns the length of the longest root-to-leaf path.
func (t *Tree) Depth() int {
	if t == nil {
		return 0
	}
	return nodeDepth(t.Root)
}

func nodeDepth(n *Node) int {
	if n == nil || n.IsLeaf() {
		return 0
	}
	return 1 + max(nodeDepth(n.Left), nodeDepth(n.Right))
}

// Leaves returns the number of leaf nodes.
func (t *Tree) Leaves() int {
	if t == nil {
		return 0
	}
	return countLeaves(t.Root)
}

func countLeaves(n *Node) int {
	if n == nil {
		return 0
	}
	if n.IsLeaf() {
		return 1
	}
	return countLeaves(n.Left) + countLeaves(n.Right)
}

// String renders the tree one split per line, nested levels prefixed with "|   ".
func (t *Tree) String() string {
	if t == nil || t.Root == nil {
		return "<empty tree>"
	}
	if t.Root.IsLeaf() {
		return fmt.Sprintf(": %s (%d)", t.Root.Label, t.Root.Samples)
	}
	var sb strings.Builder
	writeNode(&sb, t.Root, 0)
	return strings.TrimRight(sb.String(), "\n")
}

func writeNode(sb *strings.Builder, n *Node, level int) {
	thr := strconv.FormatFloat(n.Threshold, 'g', -1, 64)
	branches := []struct {
		op    string
		child *Node
	}{
		{"<=", n.Left},
		{">", n.Right},
	}
	for _, b := range branches {
		sb.WriteString(strings.Repeat("|   ", level))
		fmt.Fprintf(sb, "%s %s %s", n.Feature, b.op, thr)
		if b.child.IsLeaf() {
			fmt.Fprintf(sb, ": %s (%d)\n", b.child.Label, b.child.Samples)
			continue
		}
		sb.WriteString("\n")
		writeNode(sb, b.child, level+1)
	}
}

// Config controls tree construction.
type Config struct {
	MaxDepth int // Recursion limit; 0 selects DefaultMaxDepth
}

// Trainer builds decision trees by recursive information-gain splitting.
type Trainer struct {
	maxDepth int
}

// NewTrainer creates a Trainer from cfg.
func NewTrainer(cfg Config) (*Trainer, error) {
	if cfg.MaxDepth < 0 {
		return nil, fmt.Errorf("max depth must not be negative, got %d", cfg.MaxDepth)
	}
	depth := cfg.MaxDepth
	if depth == 0 {
		depth = DefaultMaxDepth
	}
	return &Trainer{maxDepth: depth}, nil
}

// MaxDepth returns the effective recursion limit.
func (tr *Trainer) MaxDepth() int {
	return tr.maxDepth
}

// Train builds a tree from set. The result does not depend on the order of set.
func (tr *Trainer) Train(set TrainingSet) (*Tree, error) {
	if len(set) == 0 {
		return nil, &EmptyDatasetError{}
	}
	dims := len(set[0].Features)
	for i, ex := range set {
		if len(ex.Features) != dims {
			return nil, fmt.Errorf("example %d has %d features, expected %d", i, len(ex.Features), dims)
		}
	}
	return &Tree{Root: tr.build(set, 0, dims), Dimensions: dims}, nil
}

func (tr *Trainer) build(set TrainingSet, depth, dims int) *Node {
	up, down := set.Counts()
	if up == 0 || down == 0 || depth >= tr.maxDepth {
		return &Node{Label: majority(up, down), Samples: len(set)}
	}

	s, ok := bestSplit(set, dims, up, down)
	if !ok {
		return &Node{Label: majority(up, down), Samples: len(set)}
	}

	left := make(TrainingSet, 0, len(set))
	right := make(TrainingSet, 0, len(set))
	for _, ex := range set {
		if ex.Features[s.feature] <= s.threshold {
			left = append(left, ex)
		} else {
			right = append(right, ex)
		}
	}

	return &Node{
		Feature:   domain.Feature(s.feature),
		Threshold: s.threshold,
		Gain:      s.gain,
		Samples:   len(set),
		Left:      tr.build(left, depth+1, dims),
		Right:     tr.build(right, depth+1, dims),
	}
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

// bestSplit scans features in priority order and thresholds in ascending order,
// so a later candidate only wins with a strictly larger gain.
func bestSplit(set TrainingSet, dims, up, down int) (split, bool) {
	n := len(set)
	parent := entropy(up, down)
	var best split
	found := false

	order := make([]int, n)
	for f := 0; f < dims; f++ {
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return set[order[a]].Features[f] < set[order[b]].Features[f]
		})

		leftUp, leftDown := 0, 0
		for i := 0; i < n-1; i++ {
			ex := set[order[i]]
			if ex.Label == domain.LabelUp {
				leftUp++
			} else {
				leftDown++
			}
			a := ex.Features[f]
			b := set[order[i+1]].Features[f]
			if a == b {
				continue
			}
			nl := i + 1
			nr := n - nl
			g := parent -
				float64(nl)/float64(n)*entropy(leftUp, leftDown) -
				float64(nr)/float64(n)*entropy(up-leftUp, down-leftDown)
			if g > best.gain+gainEpsilon {
				best = split{feature: f, threshold: midpoint(a, b), gain: g}
				found = true
			}
		}
	}
	return best, found
}

// midpoint falls back to a when rounding pushes the midpoint onto b.
func midpoint(a, b float64) float64 {
	m := a + (b-a)/2
	if m >= b {
		return a
	}
	return m
}

func entropy(up, down int) float64 {
	n := float64(up + down)
	if n == 0 {
		return 0
	}
	h := 0.0
	for _, c := range []int{up, down} {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	return h
}

// majority resolves ties lexically, so "down" wins over "up".
func majority(up, down int) domain.Label {
	if up > down {
		return domain.LabelUp
	}
	return domain.LabelDown
}

// Package scenario builds the Monte Carlo tree of future curve states the
// CVaR optimizer walks to price hedges: a rooted, non-recombining tree whose
// nodes hold a curve snapshot and branches represent one quarter of
// independently-simulated curve evolution.
package scenario

import (
	"time"

	"github.com/areumfire/almhedge/internal/bankerr"
	"github.com/areumfire/almhedge/internal/curve"
	"github.com/areumfire/almhedge/internal/rng"
)

// QuarterLenDays is the number of simulated days a single tree edge spans.
const QuarterLenDays = 91

// Node is one point in the scenario tree.
type Node struct {
	Level          int
	Parent         int // index into the tree's node slice; -1 for the root
	Date           time.Time
	Snapshot       curve.Snapshot
	AccMultToChild float64 // accrual multiplier applied walking parent -> this node
}

// BuildTree grows a tree of depth levels (root at level 0) with branch
// children per node, starting from root's current state. root must
// implement curve.Forker so each branch can evolve with its own,
// independently-seeded randomness; seeds for the forks are drawn from src so
// the whole tree stays reproducible given a fixed seed.
//
// Returned nodes are stored flat, parent-indexed, avoiding one allocation per
// tree node: nodes[i].Parent is an index into the same slice, root's Parent
// is -1.
func BuildTree(root curve.Curve, levels, branch int, src *rng.PCG32) ([]Node, error) {
	forker, ok := root.(curve.Forker)
	if !ok {
		return nil, bankerr.InvariantViolation("curve does not support forking for scenario branching")
	}

	rootSnap := root.Snapshot()
	nodes := []Node{{
		Level:          0,
		Parent:         -1,
		Date:           root.CurrentDate(),
		Snapshot:       rootSnap,
		AccMultToChild: 1.0,
	}}

	levelIdx := [][]int{{0}}

	for level := 1; level < levels; level++ {
		var thisLevel []int
		for _, pIdx := range levelIdx[level-1] {
			parent := nodes[pIdx]
			r1yParent, _ := parent.Snapshot.Rate(12)

			for b := 0; b < branch; b++ {
				seed := int64(src.Uint64()>>1) + 1 // stay positive, never zero
				branched, err := forker.Fork(seed)
				if err != nil {
					return nil, err
				}
				branched.Step(QuarterLenDays)

				node := Node{
					Level:          level,
					Parent:         pIdx,
					Date:           branched.CurrentDate(),
					Snapshot:       branched.Snapshot(),
					AccMultToChild: 1.0 + r1yParent/4.0,
				}
				nodes = append(nodes, node)
				thisLevel = append(thisLevel, len(nodes)-1)
			}
		}
		levelIdx = append(levelIdx, thisLevel)
	}

	return nodes, nil
}

// Leaves returns the indices of every node at the tree's deepest level.
func Leaves(nodes []Node) []int {
	if len(nodes) == 0 {
		return nil
	}
	maxLevel := 0
	for _, n := range nodes {
		if n.Level > maxLevel {
			maxLevel = n.Level
		}
	}
	var leaves []int
	for i, n := range nodes {
		if n.Level == maxLevel {
			leaves = append(leaves, i)
		}
	}
	return leaves
}

// PathToRoot returns the sequence of node indices from the root down to leaf,
// inclusive.
func PathToRoot(nodes []Node, leaf int) []int {
	var path []int
	cur := leaf
	for cur != -1 {
		path = append(path, cur)
		cur = nodes[cur].Parent
	}
	// reverse in place: root first, leaf last
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

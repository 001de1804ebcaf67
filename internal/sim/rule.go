package sim

import (
	"fmt"
	"strings"
)

// Comparator selects how a leaf compares a count to its threshold.
type Comparator int

const (
	AtLeast Comparator = iota // count >= threshold
	Exactly                   // count == threshold
)

func (c Comparator) String() string {
	switch c {
	case AtLeast:
		return ">="
	case Exactly:
		return "=="
	default:
		return "?"
	}
}

// ParseComparator accepts the symbolic and spelled-out forms. Empty means AtLeast.
func ParseComparator(s string) (Comparator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", ">=", "at_least", "atleast", "at-least":
		return AtLeast, nil
	case "==", "=", "exactly":
		return Exactly, nil
	default:
		return AtLeast, configErrorf("comparator", "unknown comparator %q", s)
	}
}

// Connective joins two subtrees.
type Connective int

const (
	And Connective = iota
	Or
)

func (c Connective) String() string {
	if c == Or {
		return "OR"
	}
	return "AND"
}

// ParseConnective accepts AND/OR in any case. Empty means AND.
func ParseConnective(s string) (Connective, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AND", "&":
		return And, nil
	case "OR", "|":
		return Or, nil
	default:
		return And, configErrorf("operator", "unknown operator %q", s)
	}
}

// NodeKind tags the variant held by a RuleNode.
type NodeKind int

const (
	NodeAlwaysTrue NodeKind = iota
	NodeLeaf
	NodeComposite
)

// RuleNode is one node of a requirement tree: a comparator leaf, a binary
// AND/OR composite, or the always-true identity.
type RuleNode struct {
	Kind NodeKind

	// Leaf fields
	Target     string
	Threshold  int
	Comparator Comparator

	// Composite fields
	Left, Right *RuleNode
	Connective  Connective
}

// AlwaysTrue returns the identity node used for empty groups and null leaves.
func AlwaysTrue() *RuleNode {
	return &RuleNode{Kind: NodeAlwaysTrue}
}

// Leaf returns a node comparing the count of target to threshold.
func Leaf(target string, threshold int, cmp Comparator) *RuleNode {
	return &RuleNode{Kind: NodeLeaf, Target: target, Threshold: threshold, Comparator: cmp}
}

// Combine joins left and right with conn.
func Combine(left, right *RuleNode, conn Connective) *RuleNode {
	return &RuleNode{Kind: NodeComposite, Left: left, Right: right, Connective: conn}
}

// Eval reports whether counts satisfy the tree. Absent targets count as zero;
// a nil node is treated as AlwaysTrue.
func (n *RuleNode) Eval(counts Counts) bool {
	if n == nil {
		return true
	}
	switch n.Kind {
	case NodeLeaf:
		got := counts[n.Target]
		if n.Comparator == Exactly {
			return got == n.Threshold
		}
		return got >= n.Threshold
	case NodeComposite:
		if n.Connective == Or {
			return n.Left.Eval(counts) || n.Right.Eval(counts)
		}
		return n.Left.Eval(counts) && n.Right.Eval(counts)
	default:
		return true
	}
}

// String renders the tree as an infix expression.
func (n *RuleNode) String() string {
	if n == nil {
		return "TRUE"
	}
	switch n.Kind {
	case NodeLeaf:
		return fmt.Sprintf("%s %s %d", n.Target, n.Comparator, n.Threshold)
	case NodeComposite:
		return fmt.Sprintf("(%s %s %s)", n.Left, n.Connective, n.Right)
	default:
		return "TRUE"
	}
}

// Requirement is one item of an ordered requirement list. Next is the
// connective joining this item to the one after it.
type Requirement struct {
	Target     *string
	Threshold  int
	Comparator Comparator
	Next       Connective
	Group      []Requirement
}

// Req is a shorthand for a leaf requirement on target.
func Req(target string, threshold int, cmp Comparator) Requirement {
	return Requirement{Target: &target, Threshold: threshold, Comparator: cmp}
}

// Then sets the connective to the next item and returns the requirement.
func (r Requirement) Then(conn Connective) Requirement {
	r.Next = conn
	return r
}

// GroupOf wraps items as a nested requirement.
func GroupOf(items ...Requirement) Requirement {
	if items == nil {
		items = []Requirement{}
	}
	return Requirement{Group: items}
}

// BuildRule folds items left to right into a tree. Item i is joined to the
// accumulated tree with the connective stored on item i-1. There is no
// precedence beyond explicit groups.
func BuildRule(items []Requirement) *RuleNode {
	if len(items) == 0 {
		return AlwaysTrue()
	}
	tree := buildItem(items[0])
	for i := 1; i < len(items); i++ {
		tree = Combine(tree, buildItem(items[i]), items[i-1].Next)
	}
	return tree
}

func buildItem(r Requirement) *RuleNode {
	if r.Group != nil {
		return BuildRule(r.Group)
	}
	if r.Target == nil {
		return AlwaysTrue()
	}
	return Leaf(*r.Target, r.Threshold, r.Comparator)
}

// BuildRules builds one tree per condition list.
func BuildRules(conditions [][]Requirement) []*RuleNode {
	trees := make([]*RuleNode, 0, len(conditions))
	for _, c := range conditions {
		trees = append(trees, BuildRule(c))
	}
	return trees
}

// AnySatisfied reports whether at least one tree holds for counts.
func AnySatisfied(trees []*RuleNode, counts Counts) bool {
	for _, t := range trees {
		if t.Eval(counts) {
			return true
		}
	}
	return false
}

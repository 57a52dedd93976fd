package streamable

// nodeKind tags the closed set of operator variants that make up a
// pipeline. The set is fixed at library level — see spec.md §9.
type nodeKind string

const (
	nodeSource  nodeKind = "source"
	nodeMap     nodeKind = "map"
	nodeForeach nodeKind = "foreach"
	nodeFilter  nodeKind = "filter"
	nodeFlatten nodeKind = "flatten"
	nodeBatch   nodeKind = "batch"
	nodeLimit   nodeKind = "limit"
	nodeSlow    nodeKind = "slow"
	nodeCatch   nodeKind = "catch"
	nodeObserve nodeKind = "observe"
	nodeChain   nodeKind = "chain"
)

// node is the non-generic half of a pipeline node: just enough lineage
// (kind, a human label, and a parent pointer) for a future explain/repr
// layer to walk the chain. It carries no type information and performs no
// iteration itself — that lives in the generic Stream[T] and its
// materialize closure. Keeping this separate from Stream[T] is what lets
// a Stream's upstream lineage be recorded even though Go generics can't
// express "my upstream, of some other element type" as a single field.
type node struct {
	kind     nodeKind
	label    string
	upstream *node
}

func (n *node) child(kind nodeKind, label string) *node {
	return &node{kind: kind, label: label, upstream: n}
}

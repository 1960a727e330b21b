package workflow

// Complexity is the difficulty label shown on a marketplace listing.
type Complexity string

const (
	ComplexityBasic        Complexity = "Basic"
	ComplexityIntermediate Complexity = "Intermediate"
	ComplexityAdvanced     Complexity = "Advanced"
)

// Score labels a workflow by node count, falling back to the serialized
// document size for graphs with few but large nodes. The thresholds are
// user-visible and must not drift.
func Score(nodeCount, serializedLength int) Complexity {
	switch {
	case nodeCount >= 13:
		return ComplexityAdvanced
	case nodeCount >= 7:
		return ComplexityIntermediate
	case serializedLength > 6000:
		return ComplexityAdvanced
	case serializedLength > 4000:
		return ComplexityIntermediate
	default:
		return ComplexityBasic
	}
}

// Complexity scores the graph.
func (g *Graph) Complexity() Complexity {
	return Score(g.NodeCount(), g.Size)
}

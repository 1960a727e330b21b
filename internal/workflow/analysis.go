package workflow

// Analysis is the set of derived facts shown for a workflow listing.
type Analysis struct {
	Name            string     `json:"name,omitempty"`
	NodeCount       int        `json:"nodeCount"`
	ConnectionCount int        `json:"connectionCount"`
	NodeTypes       []string   `json:"nodeTypes"`
	Triggers        []string   `json:"triggers"`
	Actions         []string   `json:"actions"`
	ExecutionOrder  []string   `json:"executionOrder"`
	Tools           []string   `json:"tools"`
	Complexity      Complexity `json:"complexity"`
}

// Analyze derives the listing facts for g.
func Analyze(g *Graph) Analysis {
	return Analysis{
		Name:            g.Name,
		NodeCount:       g.NodeCount(),
		ConnectionCount: g.ConnectionCount(),
		NodeTypes:       g.NodeTypes,
		Triggers:        nodeNames(g.TriggerNodes),
		Actions:         nodeNames(g.ActionNodes),
		ExecutionOrder:  nodeNames(g.SortedNodes),
		Tools:           Tools(g.Nodes),
		Complexity:      g.Complexity(),
	}
}

func nodeNames(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

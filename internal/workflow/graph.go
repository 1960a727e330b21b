// Package workflow reads untrusted workflow documents (n8n-style exports) and
// derives the structural facts the marketplace shows about them: node
// ordering, trigger/action split, the services a workflow touches and a
// difficulty label. It never executes node logic.
package workflow

import (
	"bytes"
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"
)

// webhookNodePrefix is the type prefix shared by the built-in webhook nodes.
const webhookNodePrefix = "n8n-nodes-base.webhook"

// rowTolerance is the vertical distance within which two nodes count as the same canvas row.
const rowTolerance = 100

// Position is a node's location on the editor canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one normalized workflow step.
type Node struct {
	ID         string         `json:"id,omitempty"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Position   *Position      `json:"position,omitempty"`
	Parameters map[string]any `json:"-"`
}

// Connection is one flattened edge of the connections.main adjacency structure.
type Connection struct {
	SourceNodeID      string `json:"sourceNodeId"`
	TargetNodeID      string `json:"targetNodeId"`
	SourceOutputIndex int    `json:"sourceOutputIndex"`
	TargetInputIndex  int    `json:"targetInputIndex"`
}

// Graph is the normalized view of a workflow document. Every collection is
// non-nil, even when the input lacked the corresponding key.
type Graph struct {
	Name         string       `json:"name,omitempty"`
	Description  string       `json:"description,omitempty"`
	Nodes        []Node       `json:"nodes"`
	Connections  []Connection `json:"connections"`
	NodeTypes    []string     `json:"nodeTypes"`
	TriggerNodes []Node       `json:"triggerNodes"`
	ActionNodes  []Node       `json:"actionNodes"`
	SortedNodes  []Node       `json:"sortedNodes"`
	// Size is the byte length of the compact JSON encoding of the document.
	Size int `json:"size"`
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// ConnectionCount returns the number of flattened connections.
func (g *Graph) ConnectionCount() int { return len(g.Connections) }

// Parse decodes raw JSON and normalizes it. Undecodable input yields an empty
// graph rather than an error.
func Parse(raw []byte) *Graph {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		g := Normalize(nil)
		g.Size = len(raw)
		return g
	}
	return Normalize(doc)
}

// Normalize converts an already-decoded JSON value into a Graph. Any value is
// accepted; absent or mistyped fields degrade to empty collections.
func Normalize(doc any) *Graph {
	root := asObject(doc)
	g := &Graph{
		Name:         asString(root["name"]),
		Description:  asString(root["description"]),
		Nodes:        []Node{},
		Connections:  []Connection{},
		NodeTypes:    []string{},
		TriggerNodes: []Node{},
		ActionNodes:  []Node{},
	}
	g.Size = encodedSize(doc)

	seenTypes := make(map[string]bool)
	for _, raw := range asArray(root["nodes"]) {
		obj := asObject(raw)
		n := Node{
			ID:         asString(obj["id"]),
			Name:       asString(obj["name"]),
			Type:       asString(obj["type"]),
			Position:   parsePosition(obj["position"]),
			Parameters: asObject(obj["parameters"]),
		}
		if n.Name == "" {
			n.Name = n.ID
		}
		g.Nodes = append(g.Nodes, n)

		if n.Type != "" && !seenTypes[n.Type] {
			seenTypes[n.Type] = true
			g.NodeTypes = append(g.NodeTypes, n.Type)
		}
		if IsTrigger(n.Type) {
			g.TriggerNodes = append(g.TriggerNodes, n)
		} else {
			g.ActionNodes = append(g.ActionNodes, n)
		}
	}

	g.Connections = flattenConnections(asObject(root["connections"]))
	g.SortedNodes = SortByCanvas(g.Nodes)
	return g
}

// IsTrigger reports whether a node type starts a workflow run. The checks are
// case-sensitive: "Trigger" matches the camel-cased n8n trigger suffix and
// "webhook" matches webhook node types.
func IsTrigger(nodeType string) bool {
	return strings.Contains(nodeType, "Trigger") ||
		strings.Contains(nodeType, "webhook") ||
		strings.HasPrefix(nodeType, webhookNodePrefix)
}

// flattenConnections walks source -> "main" -> output index -> targets.
// n8n encodes each output as an array position; object-keyed outputs
// ({"0": [...]}) are accepted too.
func flattenConnections(conns map[string]any) []Connection {
	out := []Connection{}
	sources := make([]string, 0, len(conns))
	for source := range conns {
		sources = append(sources, source)
	}
	slices.Sort(sources)

	for _, source := range sources {
		main := asObject(conns[source])["main"]
		for outputIndex, targets := range outputs(main) {
			for _, t := range asArray(targets) {
				target := asObject(t)
				node := asString(target["node"])
				if node == "" {
					continue
				}
				out = append(out, Connection{
					SourceNodeID:      source,
					TargetNodeID:      node,
					SourceOutputIndex: outputIndex,
					TargetInputIndex:  asInt(target["index"]),
				})
			}
		}
	}
	return out
}

// outputs returns the per-output target lists of a "main" value in index order.
func outputs(main any) [][]any {
	switch v := main.(type) {
	case []any:
		res := make([][]any, len(v))
		for i, o := range v {
			res[i] = asArray(o)
		}
		return res
	case map[string]any:
		maxIndex := -1
		indexed := make(map[int][]any, len(v))
		for k, o := range v {
			idx, err := strconv.Atoi(k)
			if err != nil || idx < 0 {
				continue
			}
			indexed[idx] = asArray(o)
			maxIndex = max(maxIndex, idx)
		}
		res := make([][]any, maxIndex+1)
		for idx, targets := range indexed {
			res[idx] = targets
		}
		return res
	}
	return nil
}

// SortByCanvas returns nodes in approximate execution order: top to bottom by
// canvas row, left to right within a row. Nodes whose vertical positions are
// less than rowTolerance apart share a row. A node without a position compares
// equal to everything and keeps its relative order.
//
// The order reflects the canvas layout, not the connection graph, which may be
// cyclic or disconnected.
func SortByCanvas(nodes []Node) []Node {
	sorted := slices.Clone(nodes)
	if sorted == nil {
		sorted = []Node{}
	}
	slices.SortStableFunc(sorted, compareCanvas)
	return sorted
}

func compareCanvas(a, b Node) int {
	if a.Position == nil || b.Position == nil {
		return 0
	}
	if math.Abs(a.Position.Y-b.Position.Y) < rowTolerance {
		return cmpFloat(a.Position.X, b.Position.X)
	}
	return cmpFloat(a.Position.Y, b.Position.Y)
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// parsePosition accepts n8n's [x, y] array as well as an {x, y} object.
func parsePosition(v any) *Position {
	switch p := v.(type) {
	case []any:
		if len(p) < 2 {
			return nil
		}
		x, okX := p[0].(float64)
		y, okY := p[1].(float64)
		if !okX || !okY {
			return nil
		}
		return &Position{X: x, Y: y}
	case map[string]any:
		x, okX := p["x"].(float64)
		y, okY := p["y"].(float64)
		if !okX || !okY {
			return nil
		}
		return &Position{X: x, Y: y}
	}
	return nil
}

// encodedSize measures doc the way a browser's JSON.stringify would: compact,
// without HTML escaping.
func encodedSize(doc any) int {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return 0
	}
	return len(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

func asObject(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func asArray(v any) []any {
	if a, ok := v.([]any); ok {
		return a
	}
	return nil
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asInt(v any) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return 0
}

package wikitext

// Walk performs a depth-first traversal of nodes and their descendants,
// calling visit on every node encountered (including nodes in it itself).
// If visit returns false, Walk stops descending into that node's children
// (but continues with its siblings).
func Walk(nodes []*Node, visit func(*Node) bool) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		descend := visit(n)
		if !descend {
			continue
		}
		Walk(n.Children, visit)
		for _, param := range n.Params {
			Walk(param.Value, visit)
		}
	}
}

// CollectLinkTargets returns the Target of every Link node found anywhere
// in nodes' subtree, in depth-first discovery order, including duplicates
// (callers dedupe/resolve as needed).
func CollectLinkTargets(nodes []*Node) []string {
	var targets []string
	Walk(nodes, func(n *Node) bool {
		if n.Kind == KindLink {
			targets = append(targets, n.Target)
		}
		return true
	})
	return targets
}

// ParametersToMap returns only a template's named parameters (positional
// ones, whose synthetic name is purely numeric, are excluded), keyed by
// name with the last occurrence winning.
func ParametersToMap(params []Param) map[string][]*Node {
	m := make(map[string][]*Node)
	for _, p := range params {
		if isPositionalName(p.Name) {
			continue
		}
		m[p.Name] = p.Value
	}
	return m
}

package network

import "github.com/agenthands/aurehal/internal/core/model"

// Components groups the payload's nodes into weakly connected fragments,
// ignoring edge direction. Fragments are ordered by their first node; a
// filtered view of a single harvest can split into several of them.
func Components(p Payload) [][]model.ID {
	adj := make(map[model.ID][]model.ID, len(p.Nodes))
	for _, n := range p.Nodes {
		adj[n.ID] = nil
	}
	for _, e := range p.Edges {
		if _, ok := adj[e.From]; !ok {
			continue
		}
		if _, ok := adj[e.To]; !ok {
			continue
		}
		adj[e.From] = append(adj[e.From], e.To)
		adj[e.To] = append(adj[e.To], e.From)
	}

	visited := make(map[model.ID]bool, len(p.Nodes))
	var components [][]model.ID
	for _, n := range p.Nodes {
		if visited[n.ID] {
			continue
		}
		var component []model.ID
		stack := []model.ID{n.ID}
		visited[n.ID] = true
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, u)
			for _, v := range adj[u] {
				if !visited[v] {
					visited[v] = true
					stack = append(stack, v)
				}
			}
		}
		components = append(components, component)
	}
	return components
}

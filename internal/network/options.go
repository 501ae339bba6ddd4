package network

import "strings"

var layoutDirections = map[string]bool{"UD": true, "DU": true, "LR": true, "RL": true}

// LayoutOptions returns the vis-network options object.
func LayoutOptions(hierarchical bool, direction string) map[string]any {
	direction = strings.ToUpper(direction)
	if !layoutDirections[direction] {
		direction = "UD"
	}

	return map[string]any{
		"height": "700px",
		"width":  "100%",
		"interaction": map[string]any{
			"hover":               true,
			"hoverConnectedEdges": true,
			"navigationButtons":   true,
		},
		"edges": map[string]any{
			"arrows": map[string]any{
				"to": map[string]any{"enabled": true, "scaleFactor": 1, "type": "arrow"},
			},
		},
		"layout": map[string]any{
			"hierarchical": map[string]any{
				"enabled":              hierarchical,
				"levelSeparation":      150,
				"nodeSpacing":          100,
				"treeSpacing":          200,
				"blockShifting":        true,
				"edgeMinimization":     true,
				"parentCentralization": true,
				"direction":            direction,
				"sortMethod":           "directed",
			},
		},
		"physics": map[string]any{
			"stabilization": map[string]any{"iterations": 100},
		},
	}
}

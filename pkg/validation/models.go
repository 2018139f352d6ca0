// Package validation provides model definitions with validation tags
package validation

// Topology kinds accepted by TopologySpec.
const (
	TopologyChain = "chain"
	TopologyRing  = "ring"
	TopologyStar  = "star"
	TopologyMesh  = "mesh"
)

// EdgeSpec declares one entanglement to apply to a graph
// PRINCIPLES:
// - Single Responsibility: Edge declaration only
// - Validation: Comprehensive validation tags
type EdgeSpec struct {
	Source        string   `json:"source" validate:"required,node_id" yaml:"source"`
	Target        string   `json:"target" validate:"required,node_id" yaml:"target"`
	Strength      *float64 `json:"strength,omitempty" validate:"omitempty,strength" yaml:"strength,omitempty"`
	Bidirectional *bool    `json:"bidirectional,omitempty" yaml:"bidirectional,omitempty"`
}

// TopologySpec declares a prebuilt wiring shape over a node set. For star
// topologies the hub defaults to the first node; the remaining nodes become
// leaves.
type TopologySpec struct {
	Kind          string   `json:"kind" validate:"required,topology" yaml:"kind"`
	Nodes         []string `json:"nodes" validate:"required,min=2,dive,node_id" yaml:"nodes"`
	Hub           string   `json:"hub,omitempty" validate:"omitempty,node_id" yaml:"hub,omitempty"`
	Strength      *float64 `json:"strength,omitempty" validate:"omitempty,strength" yaml:"strength,omitempty"`
	Bidirectional *bool    `json:"bidirectional,omitempty" yaml:"bidirectional,omitempty"`
}

// Validate implements custom validation for TopologySpec
func (ts *TopologySpec) Validate() error {
	var errors ValidationErrors

	// Validate node uniqueness
	nodeIDs := make(map[string]bool)
	for _, node := range ts.Nodes {
		if nodeIDs[node] {
			errors = append(errors, ValidationError{
				Field:   "nodes",
				Value:   node,
				Message: "duplicate node ID",
			})
		}
		nodeIDs[node] = true
	}

	// A named hub must be part of the node set
	if ts.Hub != "" && !nodeIDs[ts.Hub] {
		errors = append(errors, ValidationError{
			Field:   "hub",
			Value:   ts.Hub,
			Message: "hub must be one of the declared nodes",
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

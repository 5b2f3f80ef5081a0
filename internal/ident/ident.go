// Package ident generates collision-free, prefix-scoped identifiers.
package ident

import (
	"strconv"
	"strings"
)

// Prefixes used for generated entity ids.
const (
	NodePrefix       = "Node-"
	ConnectionPrefix = "Connection-"
	ContainerPrefix  = "Container-"
)

// Next returns prefix followed by one more than the highest numeric suffix
// found among existing ids carrying that prefix. Ids with a non-numeric
// suffix do not take part in numbering.
func Next[K ~string](prefix string, existing []K) K {
	highest := 0
	for _, id := range existing {
		rest, ok := strings.CutPrefix(string(id), prefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return K(prefix + strconv.Itoa(highest+1))
}

// InputPort returns the id of the i-th input port of a node.
func InputPort(nodeID string, i int) string {
	return nodeID + "-Input-" + strconv.Itoa(i)
}

// OutputPort returns the id of the i-th output port of a node.
func OutputPort(nodeID string, i int) string {
	return nodeID + "-Output-" + strconv.Itoa(i)
}

// ParamPort returns the id of the modulation port of a node parameter.
func ParamPort(nodeID, param string) string {
	return nodeID + "-" + param
}

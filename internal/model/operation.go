package model

import (
	"fmt"
	"strings"
)

// Operation names a binary spatial predicate evaluated as op(geometry1, geometry2).
type Operation string

const (
	// OpCrosses: interiors intersect in a set of lower dimension than either input
	// and neither geometry contains the other.
	OpCrosses Operation = "crosses"
	// OpContains: no point of geometry2 lies outside geometry1 and the interiors meet.
	OpContains Operation = "contains"
	// OpWithin is contains with the arguments swapped.
	OpWithin Operation = "within"
	// OpIntersects: the geometries share at least one point.
	OpIntersects Operation = "intersects"
	// OpDisjoint: the geometries share no point.
	OpDisjoint Operation = "disjoint"
	// OpTouches: the geometries meet only on their boundaries.
	OpTouches Operation = "touches"
	// OpOverlaps: same-dimension geometries share some but not all interior points.
	OpOverlaps Operation = "overlaps"
	// OpEquals: the geometries are topologically equal.
	OpEquals Operation = "equals"
)

// Operations lists every supported operation in display order.
func Operations() []Operation {
	return []Operation{
		OpCrosses,
		OpContains,
		OpWithin,
		OpIntersects,
		OpDisjoint,
		OpTouches,
		OpOverlaps,
		OpEquals,
	}
}

// OperationNames returns the supported operation names as strings.
func OperationNames() []string {
	ops := Operations()
	names := make([]string, 0, len(ops))

	for _, op := range ops {
		names = append(names, string(op))
	}

	return names
}

// ParseOperation resolves a case-sensitive operation name.
func ParseOperation(name string) (Operation, error) {
	for _, op := range Operations() {
		if string(op) == name {
			return op, nil
		}
	}

	return "", fmt.Errorf("%w %q (supported: %s)", ErrUnsupportedOperation, name, strings.Join(OperationNames(), ", "))
}

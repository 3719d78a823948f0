package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/peterstace/simplefeatures/geom"

	"geokit.dev/tools/geokit/internal/adapter"
	m "geokit.dev/tools/geokit/internal/model"
)

// Positional argument names used in errors.
const (
	Geometry1Arg = "geometry1"
	Geometry2Arg = "geometry2"
)

// PredicateFunc evaluates a binary spatial predicate as pred(a, b).
type PredicateFunc func(a, b geom.Geometry) (bool, error)

// predicates maps every m.Operation to its DE-9IM predicate.
var predicates = map[m.Operation]PredicateFunc{
	m.OpCrosses:  geom.Crosses,
	m.OpContains: geom.Contains,
	m.OpWithin:   geom.Within,
	m.OpIntersects: func(a, b geom.Geometry) (bool, error) {
		return geom.Intersects(a, b), nil
	},
	m.OpDisjoint: geom.Disjoint,
	m.OpTouches:  geom.Touches,
	m.OpOverlaps: geom.Overlaps,
	m.OpEquals:   geom.Equals,
}

// PredicateEvaluator parses geometry arguments and evaluates an operation
// between them.
type PredicateEvaluator interface {
	// Evaluate applies op to two decoded geometries.
	Evaluate(ctx context.Context, op m.Operation, g1, g2 geom.Geometry) (bool, error)
	// EvaluateArgs resolves the three positional arguments of geopred and
	// evaluates them.
	EvaluateArgs(ctx context.Context, opName, arg1, arg2 string) (bool, error)
}

type predicateEvaluator struct {
	adapter.GeoJSONAdapter
}

// NewPredicateEvaluator constructs a PredicateEvaluator that decodes
// arguments with geoAdapter.
func NewPredicateEvaluator(geoAdapter adapter.GeoJSONAdapter) PredicateEvaluator {
	return &predicateEvaluator{GeoJSONAdapter: geoAdapter}
}

func (e *predicateEvaluator) Evaluate(ctx context.Context, op m.Operation, g1, g2 geom.Geometry) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	pred, ok := predicates[op]
	if !ok {
		return false, fmt.Errorf("%w %q: no predicate registered", m.ErrUnsupportedOperation, op)
	}

	result, err := pred(g1, g2)
	if err != nil {
		return false, fmt.Errorf("evaluate %s: %w", op, err)
	}

	slog.Debug("Evaluated predicate", "operation", op, "result", result)

	return result, nil
}

func (e *predicateEvaluator) EvaluateArgs(ctx context.Context, opName, arg1, arg2 string) (bool, error) {
	op, err := m.ParseOperation(opName)
	if err != nil {
		return false, err
	}

	if arg1 == adapter.StdinArgument && arg2 == adapter.StdinArgument {
		return false, errors.New("only one geometry argument may be read from stdin")
	}

	g1, err := e.decodeArg(ctx, Geometry1Arg, arg1)
	if err != nil {
		return false, err
	}

	g2, err := e.decodeArg(ctx, Geometry2Arg, arg2)
	if err != nil {
		return false, err
	}

	return e.Evaluate(ctx, op, g1, g2)
}

func (e *predicateEvaluator) decodeArg(ctx context.Context, name, arg string) (geom.Geometry, error) {
	payload, err := e.LoadPayload(ctx, arg)
	if err != nil {
		return geom.Geometry{}, &m.ArgumentError{Name: name, Err: err}
	}

	g, err := e.Decode(ctx, payload)
	if err != nil {
		slog.Error("Failed to decode geometry", "argument", name, "error", err)
		return geom.Geometry{}, &m.ArgumentError{Name: name, Err: err}
	}

	return g, nil
}

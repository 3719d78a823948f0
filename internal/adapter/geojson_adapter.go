package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/peterstace/simplefeatures/geom"

	m "geokit.dev/tools/geokit/internal/model"
)

// StdinArgument is the positional value that reads a payload from stdin.
const StdinArgument = "-"

// fileArgumentPrefix marks a positional value naming a file to read.
const fileArgumentPrefix = "@"

// GeoJSONAdapter turns raw command-line payloads into geometries.
type GeoJSONAdapter interface {
	// LoadPayload resolves a positional argument to raw JSON: the argument
	// itself, the contents of the file named after '@', or stdin for '-'.
	LoadPayload(ctx context.Context, arg string) ([]byte, error)

	// Decode parses a GeoJSON Geometry or Feature into a geometry.
	Decode(ctx context.Context, payload []byte) (geom.Geometry, error)
}

// LocalGeoJSONAdapter implements GeoJSONAdapter with simplefeatures.
type LocalGeoJSONAdapter struct {
	stdin io.Reader
}

// NewLocalGeoJSONAdapter constructs a LocalGeoJSONAdapter reading '-'
// arguments from stdin.
func NewLocalGeoJSONAdapter(stdin io.Reader) *LocalGeoJSONAdapter {
	if stdin == nil {
		stdin = os.Stdin
	}

	return &LocalGeoJSONAdapter{stdin: stdin}
}

// LoadPayload returns the JSON text referred to by arg.
func (a *LocalGeoJSONAdapter) LoadPayload(_ context.Context, arg string) ([]byte, error) {
	switch {
	case arg == StdinArgument:
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}

		return data, nil
	case strings.HasPrefix(arg, fileArgumentPrefix):
		path := strings.TrimPrefix(arg, fileArgumentPrefix)

		// #nosec G304 - the payload file is named by the operator
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		return data, nil
	default:
		return []byte(arg), nil
	}
}

// geoJSONEnvelope is the minimum needed to tell a Feature from a Geometry.
type geoJSONEnvelope struct {
	Type     string          `json:"type"`
	Geometry json.RawMessage `json:"geometry"`
}

// Decode parses payload. Syntax errors wrap m.ErrDeserialization; anything
// that parses as JSON but does not build a valid geometry wraps
// m.ErrConstruction.
func (a *LocalGeoJSONAdapter) Decode(_ context.Context, payload []byte) (geom.Geometry, error) {
	payload = bytes.TrimSpace(payload)
	if !json.Valid(payload) {
		return geom.Geometry{}, fmt.Errorf("%w: %s", m.ErrDeserialization, describeSyntaxError(payload))
	}

	var env geoJSONEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return geom.Geometry{}, fmt.Errorf("%w: expected a JSON object: %v", m.ErrConstruction, err)
	}

	switch env.Type {
	case "Feature":
		if len(env.Geometry) == 0 || string(env.Geometry) == "null" {
			return geom.Geometry{}, fmt.Errorf("%w: feature has no geometry", m.ErrConstruction)
		}

		payload = env.Geometry
	case "FeatureCollection":
		return geom.Geometry{}, fmt.Errorf("%w: FeatureCollection is not supported, pass a single Feature or Geometry", m.ErrConstruction)
	case "":
		return geom.Geometry{}, fmt.Errorf("%w: missing \"type\" member", m.ErrConstruction)
	}

	g, err := geom.UnmarshalGeoJSON(payload)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("%w: %v", m.ErrConstruction, err)
	}

	slog.Debug("decoded geometry", "type", g.Type(), "empty", g.IsEmpty())

	return g, nil
}

func describeSyntaxError(payload []byte) string {
	var v any

	err := json.Unmarshal(payload, &v)
	if err == nil {
		return "invalid JSON"
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("%v (offset %d)", syntaxErr, syntaxErr.Offset)
	}

	return err.Error()
}

package nodedef

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// catalogFile is the YAML form of a catalog.
type catalogFile struct {
	Kinds []kindDef `yaml:"kinds"`
}

type kindDef struct {
	Kind    string     `yaml:"kind"`
	Label   string     `yaml:"label"`
	Inputs  int        `yaml:"inputs"`
	Outputs int        `yaml:"outputs"`
	Params  []paramDef `yaml:"params"`
}

// paramDef is a discriminated record: Type selects which fields apply.
type paramDef struct {
	Name         string    `yaml:"name"`
	Type         string    `yaml:"type"` // choice | number | boolean | audioParam
	Values       []string  `yaml:"values"`
	Min          float64   `yaml:"min"`
	Max          float64   `yaml:"max"`
	Default      yaml.Node `yaml:"default"`
	AcceptsInput bool      `yaml:"accepts_input"`
}

// Builtin returns a registry holding the embedded catalog.
func Builtin() *Registry {
	r, err := Parse(builtinCatalog)
	if err != nil {
		panic(fmt.Sprintf("nodedef: builtin catalog: %v", err))
	}
	return r
}

// LoadFile reads a catalog from disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return r, nil
}

// Parse decodes and validates a YAML catalog. All problems are reported
// together.
func Parse(data []byte) (*Registry, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	var errs []string
	seen := make(map[string]bool)
	defs := make([]Definition, 0, len(cf.Kinds))
	for i, k := range cf.Kinds {
		if k.Kind == "" {
			errs = append(errs, fmt.Sprintf("kinds[%d]: kind is required", i))
			continue
		}
		if seen[k.Kind] {
			errs = append(errs, fmt.Sprintf("duplicate kind %q", k.Kind))
			continue
		}
		seen[k.Kind] = true
		if k.Inputs < 0 || k.Outputs < 0 {
			errs = append(errs, fmt.Sprintf("kind %s: port counts must not be negative", k.Kind))
		}
		def := Definition{
			Kind:            k.Kind,
			Label:           k.Label,
			InputPortCount:  k.Inputs,
			OutputPortCount: k.Outputs,
		}
		names := make(map[string]bool)
		for j, pd := range k.Params {
			loc := fmt.Sprintf("kind %s: params[%d]", k.Kind, j)
			if pd.Name == "" {
				errs = append(errs, loc+": name is required")
				continue
			}
			if reservedParamName(pd.Name) {
				errs = append(errs, fmt.Sprintf("%s: name %q collides with port ids", loc, pd.Name))
				continue
			}
			if names[pd.Name] {
				errs = append(errs, fmt.Sprintf("kind %s: duplicate param %q", k.Kind, pd.Name))
				continue
			}
			names[pd.Name] = true
			p, err := pd.toParam()
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s (%s): %v", loc, pd.Name, err))
				continue
			}
			def.Params = append(def.Params, p)
		}
		defs = append(defs, def)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("catalog validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	r := NewRegistry()
	for _, d := range defs {
		r.Register(d)
	}
	return r, nil
}

func (pd paramDef) toParam() (Param, error) {
	hasDefault := !pd.Default.IsZero()
	switch pd.Type {
	case "choice":
		if len(pd.Values) == 0 {
			return nil, fmt.Errorf("choice needs values")
		}
		p := ChoiceParam{Name: pd.Name, Values: pd.Values, Default: pd.Values[0]}
		if hasDefault {
			if err := pd.Default.Decode(&p.Default); err != nil {
				return nil, fmt.Errorf("default: %w", err)
			}
			if !contains(pd.Values, p.Default) {
				return nil, fmt.Errorf("default %q is not one of %v", p.Default, pd.Values)
			}
		}
		return p, nil
	case "number", "audioParam":
		if pd.Max < pd.Min {
			return nil, fmt.Errorf("max %v below min %v", pd.Max, pd.Min)
		}
		var def float64
		if hasDefault {
			if err := pd.Default.Decode(&def); err != nil {
				return nil, fmt.Errorf("default: %w", err)
			}
		}
		if pd.Type == "number" {
			return NumberParam{Name: pd.Name, Min: pd.Min, Max: pd.Max, Default: def}, nil
		}
		return AudioParam{Name: pd.Name, Min: pd.Min, Max: pd.Max, Default: def, AcceptsInput: pd.AcceptsInput}, nil
	case "boolean":
		var def bool
		if hasDefault {
			if err := pd.Default.Decode(&def); err != nil {
				return nil, fmt.Errorf("default: %w", err)
			}
		}
		return BooleanParam{Name: pd.Name, Default: def}, nil
	default:
		return nil, fmt.Errorf("unknown param type %q", pd.Type)
	}
}

// reservedParamName reports whether a param port id built from name could
// equal an input or output port id of the same node.
func reservedParamName(name string) bool {
	return strings.HasPrefix(name, "Input-") || strings.HasPrefix(name, "Output-")
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

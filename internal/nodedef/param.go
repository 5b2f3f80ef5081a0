package nodedef

// Param is one entry of a node kind's parameter schema. The concrete types
// are ChoiceParam, NumberParam, BooleanParam and AudioParam.
type Param interface {
	ParamName() string
	DefaultValue() any
	param()
}

// ChoiceParam selects one of a fixed set of string values.
type ChoiceParam struct {
	Name    string
	Values  []string
	Default string
}

// NumberParam is a plain scalar, never connectable.
type NumberParam struct {
	Name     string
	Min, Max float64
	Default  float64
}

// BooleanParam is an on/off switch.
type BooleanParam struct {
	Name    string
	Default bool
}

// AudioParam is a scalar driven by the audio engine. When AcceptsInput is
// set the node exposes a dedicated port so an output can modulate it.
type AudioParam struct {
	Name         string
	Min, Max     float64
	Default      float64
	AcceptsInput bool
}

func (p ChoiceParam) ParamName() string  { return p.Name }
func (p NumberParam) ParamName() string  { return p.Name }
func (p BooleanParam) ParamName() string { return p.Name }
func (p AudioParam) ParamName() string   { return p.Name }

func (p ChoiceParam) DefaultValue() any  { return p.Default }
func (p NumberParam) DefaultValue() any  { return p.Default }
func (p BooleanParam) DefaultValue() any { return p.Default }
func (p AudioParam) DefaultValue() any   { return p.Default }

func (ChoiceParam) param()  {}
func (NumberParam) param()  {}
func (BooleanParam) param() {}
func (AudioParam) param()   {}

// Modulatable reports whether p gets a modulation port.
func Modulatable(p Param) bool {
	ap, ok := p.(AudioParam)
	return ok && ap.AcceptsInput
}

// Definition fixes the port arity and parameter schema of a node kind.
type Definition struct {
	Kind            string
	Label           string
	InputPortCount  int
	OutputPortCount int
	Params          []Param
}

// Param returns the named parameter definition.
func (d Definition) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.ParamName() == name {
			return p, true
		}
	}
	return nil, false
}

// ModulatableParams returns the names of parameters that accept input, in
// schema order.
func (d Definition) ModulatableParams() []string {
	var out []string
	for _, p := range d.Params {
		if Modulatable(p) {
			out = append(out, p.ParamName())
		}
	}
	return out
}

package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Sides lists the padding keys in the order Get accepts them.
var Sides = []string{"left", "top", "right", "bottom"}

// Padding is the blank margin around the drawing area, in canvas pixels.
// In YAML it is either a single number for all sides or a mapping with
// left/top/right/bottom keys; missing keys keep their previous value.
type Padding struct {
	Left, Top, Right, Bottom float64
}

// UniformPadding applies v to every side.
func UniformPadding(v float64) Padding {
	return Padding{Left: v, Top: v, Right: v, Bottom: v}
}

// Get returns one side. An empty side means left.
func (p Padding) Get(side string) (float64, error) {
	switch side {
	case "", "left":
		return p.Left, nil
	case "top":
		return p.Top, nil
	case "right":
		return p.Right, nil
	case "bottom":
		return p.Bottom, nil
	}
	return 0, &ConfigurationError{Key: "padding." + side, Reason: "unknown side"}
}

func (p *Padding) set(side string, v float64) error {
	switch side {
	case "left":
		p.Left = v
	case "top":
		p.Top = v
	case "right":
		p.Right = v
	case "bottom":
		p.Bottom = v
	default:
		return &ConfigurationError{Key: "padding." + side, Reason: "unknown side"}
	}
	return nil
}

func (p *Padding) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return &ConfigurationError{Key: "padding", Reason: err.Error()}
		}
		*p = UniformPadding(v)
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, val := node.Content[i].Value, node.Content[i+1]
			var v float64
			if err := val.Decode(&v); err != nil {
				return &ConfigurationError{Key: "padding." + k, Reason: err.Error()}
			}
			if err := p.set(k, v); err != nil {
				return err
			}
		}
		return nil
	}
	return &ConfigurationError{Key: "padding", Reason: "expected a number or a mapping"}
}

// AxisInts holds one integer per axis, x first. YAML accepts a scalar for
// both axes or a two-element list.
type AxisInts [2]int

func (a AxisInts) X() int { return a[0] }
func (a AxisInts) Y() int { return a[1] }

func (a *AxisInts) UnmarshalYAML(node *yaml.Node) error {
	var vals []int
	if err := decodeAxis(node, &vals); err != nil {
		return err
	}
	*a = AxisInts{vals[0], vals[len(vals)-1]}
	return nil
}

// AxisFloats is AxisInts for real values.
type AxisFloats [2]float64

func (a AxisFloats) X() float64 { return a[0] }
func (a AxisFloats) Y() float64 { return a[1] }

func (a *AxisFloats) UnmarshalYAML(node *yaml.Node) error {
	var vals []float64
	if err := decodeAxis(node, &vals); err != nil {
		return err
	}
	*a = AxisFloats{vals[0], vals[len(vals)-1]}
	return nil
}

func decodeAxis[T int | float64](node *yaml.Node, out *[]T) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v T
		if err := node.Decode(&v); err != nil {
			return &ConfigurationError{Key: node.Value, Reason: err.Error()}
		}
		*out = []T{v}
		return nil
	case yaml.SequenceNode:
		if len(node.Content) != 2 {
			return &ConfigurationError{
				Key:    fmt.Sprintf("line %d", node.Line),
				Reason: fmt.Sprintf("expected 2 values, got %d", len(node.Content)),
			}
		}
		return node.Decode(out)
	}
	return &ConfigurationError{Key: fmt.Sprintf("line %d", node.Line), Reason: "expected a number or a two-element list"}
}

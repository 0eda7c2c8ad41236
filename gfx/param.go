package gfx

import "fmt"

// Value is the current value of a parameter.
type Value struct {
	Kind    ParamKind
	Float   [2]float32
	Int     int32
	Texture Texture
	Set     bool
}

// BasicParam is a Param that keeps its value in memory.
// Backends snapshot Value() when a draw is recorded.
type BasicParam struct {
	name string
	val  Value
}

// NewBasicParam returns an unset parameter of the given kind.
func NewBasicParam(name string, kind ParamKind) *BasicParam {
	return &BasicParam{name: name, val: Value{Kind: kind}}
}

// Name returns the parameter name.
func (p *BasicParam) Name() string { return p.name }

// Kind returns the declared type.
func (p *BasicParam) Kind() ParamKind { return p.val.Kind }

// Value returns a copy of the current value.
func (p *BasicParam) Value() Value { return p.val }

// SetFloat sets a float parameter.
func (p *BasicParam) SetFloat(v float32) error {
	if err := p.expect(ParamFloat); err != nil {
		return err
	}
	p.val.Float = [2]float32{v, 0}
	p.val.Set = true
	return nil
}

// SetFloat2 sets a float2 parameter.
func (p *BasicParam) SetFloat2(x, y float32) error {
	if err := p.expect(ParamFloat2); err != nil {
		return err
	}
	p.val.Float = [2]float32{x, y}
	p.val.Set = true
	return nil
}

// SetInt sets an integer parameter.
func (p *BasicParam) SetInt(v int32) error {
	if err := p.expect(ParamInt); err != nil {
		return err
	}
	p.val.Int = v
	p.val.Set = true
	return nil
}

// SetTexture binds a texture. A nil texture unbinds it.
func (p *BasicParam) SetTexture(t Texture) error {
	if err := p.expect(ParamTexture); err != nil {
		return err
	}
	p.val.Texture = t
	p.val.Set = t != nil
	return nil
}

func (p *BasicParam) expect(k ParamKind) error {
	if p.val.Kind != k {
		return fmt.Errorf("%w: %s is %s, not %s", ErrParamKind, p.name, p.val.Kind, k)
	}
	return nil
}

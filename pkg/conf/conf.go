package conf

import "fmt"

// Conf is a typed heterogeneous store of configuration options, keyed
// by the declarative schema in schema.go. Scalar options live in
// values; subkeyed options (port-forward specs, per-signature
// bug-compat overrides) live in subvalues.
type Conf struct {
	values    map[Key]any
	subvalues map[Key]map[string]any
}

// New returns a Conf with every schema-declared scalar option set to
// its default.
func New() *Conf {
	c := &Conf{
		values:    make(map[Key]any),
		subvalues: make(map[Key]map[string]any),
	}
	for k, spec := range schema {
		if spec.Subkey == SubkeyNone {
			c.values[k] = spec.Default
		}
	}
	return c
}

func (c *Conf) specFor(k Key) (OptionSpec, error) {
	spec, ok := schema[k]
	if !ok {
		return OptionSpec{}, fmt.Errorf("conf: unknown option key %d", k)
	}
	return spec, nil
}

// Get returns the scalar value stored under k.
func (c *Conf) Get(k Key) (any, error) {
	spec, err := c.specFor(k)
	if err != nil {
		return nil, err
	}
	if spec.Subkey != SubkeyNone {
		return nil, fmt.Errorf("conf: %s is a subkeyed option, use GetSub", k)
	}
	return c.values[k], nil
}

// Set stores a scalar value under k, rejecting a type that does not
// match the option's declared ValueType.
func (c *Conf) Set(k Key, v any) error {
	spec, err := c.specFor(k)
	if err != nil {
		return err
	}
	if spec.Subkey != SubkeyNone {
		return fmt.Errorf("conf: %s is a subkeyed option, use SetSub", k)
	}
	if err := checkValueType(spec.Value, v); err != nil {
		return fmt.Errorf("conf: %s: %w", k, err)
	}
	c.values[k] = v
	return nil
}

// GetSub returns the value stored under k for the given subkey.
func (c *Conf) GetSub(k Key, subkey string) (any, bool, error) {
	spec, err := c.specFor(k)
	if err != nil {
		return nil, false, err
	}
	if spec.Subkey == SubkeyNone {
		return nil, false, fmt.Errorf("conf: %s is a scalar option, use Get", k)
	}
	v, ok := c.subvalues[k][subkey]
	return v, ok, nil
}

// SetSub stores a value under k for the given subkey.
func (c *Conf) SetSub(k Key, subkey string, v any) error {
	spec, err := c.specFor(k)
	if err != nil {
		return err
	}
	if spec.Subkey == SubkeyNone {
		return fmt.Errorf("conf: %s is a scalar option, use Set", k)
	}
	if err := checkValueType(spec.Value, v); err != nil {
		return fmt.Errorf("conf: %s[%s]: %w", k, subkey, err)
	}
	if c.subvalues[k] == nil {
		c.subvalues[k] = make(map[string]any)
	}
	c.subvalues[k][subkey] = v
	return nil
}

// DeleteSub removes subkey from k's subkey map, if present.
func (c *Conf) DeleteSub(k Key, subkey string) {
	delete(c.subvalues[k], subkey)
}

// Subkeys returns the set of subkeys currently populated for k, in no
// particular order.
func (c *Conf) Subkeys(k Key) []string {
	m := c.subvalues[k]
	out := make([]string, 0, len(m))
	for sub := range m {
		out = append(out, sub)
	}
	return out
}

// Equal reports whether c and other hold identical option values,
// the round-trip invariant load(save(conf)) == conf is checked against
// this.
func (c *Conf) Equal(other *Conf) bool {
	if other == nil {
		return false
	}
	if len(c.values) != len(other.values) {
		return false
	}
	for k, v := range c.values {
		ov, ok := other.values[k]
		if !ok || fmt.Sprint(v) != fmt.Sprint(ov) {
			return false
		}
	}
	if len(c.subvalues) != len(other.subvalues) {
		return false
	}
	for k, m := range c.subvalues {
		om := other.subvalues[k]
		if len(m) != len(om) {
			return false
		}
		for sub, v := range m {
			ov, ok := om[sub]
			if !ok || fmt.Sprint(v) != fmt.Sprint(ov) {
				return false
			}
		}
	}
	return true
}

func checkValueType(vt ValueType, v any) error {
	switch vt {
	case ValueInt:
		if _, ok := v.(int); !ok {
			return fmt.Errorf("expected int, got %T", v)
		}
	case ValueBool:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
	case ValueString, ValueUTF8, ValueFilename, ValueFontSpec:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
	default:
		return fmt.Errorf("unhandled value type %v", vt)
	}
	return nil
}

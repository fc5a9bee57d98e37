package conf

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// persisted is the flat on-disk shape: scalar options by their YAML
// field name, and subkeyed options as a nested map keyed the same way.
type persisted struct {
	Scalars  map[string]any            `yaml:"options"`
	Subkeyed map[string]map[string]any `yaml:"suboptions,omitempty"`
}

// Save renders c as YAML bytes.
func Save(c *Conf) ([]byte, error) {
	p := persisted{
		Scalars:  make(map[string]any, len(c.values)),
		Subkeyed: make(map[string]map[string]any, len(c.subvalues)),
	}
	for k, v := range c.values {
		name := k.String()
		if name == "" {
			return nil, fmt.Errorf("conf: save: unregistered key %d", k)
		}
		p.Scalars[name] = v
	}
	for k, m := range c.subvalues {
		name := k.String()
		if name == "" {
			return nil, fmt.Errorf("conf: save: unregistered key %d", k)
		}
		if len(m) == 0 {
			continue
		}
		p.Subkeyed[name] = m
	}
	return yaml.Marshal(p)
}

// Load parses YAML bytes produced by Save back into a Conf. Unknown
// field names are rejected, so a file written by a newer schema
// version fails loudly rather than silently dropping options.
func Load(data []byte) (*Conf, error) {
	var p persisted
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("conf: load: %w", err)
	}

	c := New()
	for name, raw := range p.Scalars {
		k, ok := KeyByName(name)
		if !ok {
			return nil, fmt.Errorf("conf: load: unknown option %q", name)
		}
		spec := schema[k]
		v, err := coerceScalar(spec.Value, raw)
		if err != nil {
			return nil, fmt.Errorf("conf: load: option %q: %w", name, err)
		}
		if err := c.Set(k, v); err != nil {
			return nil, err
		}
	}
	for name, subs := range p.Subkeyed {
		k, ok := KeyByName(name)
		if !ok {
			return nil, fmt.Errorf("conf: load: unknown option %q", name)
		}
		spec := schema[k]
		subkeys := make([]string, 0, len(subs))
		for sub := range subs {
			subkeys = append(subkeys, sub)
		}
		sort.Strings(subkeys)
		for _, sub := range subkeys {
			v, err := coerceScalar(spec.Value, subs[sub])
			if err != nil {
				return nil, fmt.Errorf("conf: load: option %q[%q]: %w", name, sub, err)
			}
			if err := c.SetSub(k, sub, v); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// coerceScalar normalizes a value decoded from YAML (which represents
// integers as int, bool as bool, strings as string, but may hand back
// other numeric widths depending on the document) to the Go type
// checkValueType expects.
func coerceScalar(vt ValueType, raw any) (any, error) {
	switch vt {
	case ValueInt:
		switch n := raw.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			return int(n), nil
		default:
			return nil, fmt.Errorf("expected integer, got %T", raw)
		}
	case ValueBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", raw)
		}
		return b, nil
	case ValueString, ValueUTF8, ValueFilename, ValueFontSpec:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", raw)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unhandled value type %v", vt)
	}
}

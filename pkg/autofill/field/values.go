package field

// ProfileValues is a string map that remembers insertion order.
// Setting an existing key replaces its value in place.
type ProfileValues struct {
	keys   []string
	values map[string]string
}

// NewProfileValues returns an empty ordered map.
func NewProfileValues() *ProfileValues {
	return &ProfileValues{values: make(map[string]string)}
}

// Set stores v under k.
func (p *ProfileValues) Set(k, v string) {
	if p.values == nil {
		p.values = make(map[string]string)
	}
	if _, ok := p.values[k]; !ok {
		p.keys = append(p.keys, k)
	}
	p.values[k] = v
}

// Get returns the value for k.
func (p *ProfileValues) Get(k string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.values[k]
	return v, ok
}

// Len returns the number of keys.
func (p *ProfileValues) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Keys returns the keys in insertion order.
func (p *ProfileValues) Keys() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Range calls fn for each pair in insertion order until fn returns false.
func (p *ProfileValues) Range(fn func(k, v string) bool) {
	if p == nil {
		return
	}
	for _, k := range p.keys {
		if !fn(k, p.values[k]) {
			return
		}
	}
}

// Map returns an unordered copy.
func (p *ProfileValues) Map() map[string]string {
	out := make(map[string]string, p.Len())
	p.Range(func(k, v string) bool {
		out[k] = v
		return true
	})
	return out
}

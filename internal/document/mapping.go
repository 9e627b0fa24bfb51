package document

// Mapping is an insertion-ordered string-keyed collection of values.
type Mapping struct {
	keys  []string
	items map[string]*Value
}

// NewEmptyMapping returns an initialized, empty mapping.
func NewEmptyMapping() *Mapping {
	return &Mapping{items: make(map[string]*Value)}
}

// Get returns the value for key and whether it exists.
func (m *Mapping) Get(key string) (*Value, bool) {
	v, ok := m.items[key]
	return v, ok
}

// Set stores the value for key, appending the key to the order if it is new.
func (m *Mapping) Set(key string, v *Value) {
	if _, ok := m.items[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.items[key] = v
}

// Delete removes the key if present.
func (m *Mapping) Delete(key string) {
	if _, ok := m.items[key]; !ok {
		return
	}
	delete(m.items, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order. The returned slice is shared;
// callers must not mutate it.
func (m *Mapping) Keys() []string { return m.keys }

// Len returns the number of entries.
func (m *Mapping) Len() int { return len(m.items) }

// Copy returns a deep copy of the mapping.
func (m *Mapping) Copy() *Mapping {
	out := NewEmptyMapping()
	for _, k := range m.keys {
		out.Set(k, m.items[k].Copy())
	}
	return out
}

// Equal reports deep equality including key order.
func (m *Mapping) Equal(other *Mapping) bool {
	if m == nil || other == nil {
		return m == other
	}
	if len(m.keys) != len(other.keys) {
		return false
	}
	for i, k := range m.keys {
		if other.keys[i] != k {
			return false
		}
		if !m.items[k].Equal(other.items[k]) {
			return false
		}
	}
	return true
}

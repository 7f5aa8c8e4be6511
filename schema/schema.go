package schema

// Entry is one key of a schema: a name paired with its declared type.
type Entry struct {
	Key  string
	Type Type
}

// E is a shorthand Entry constructor for declaration sites.
// Example: schema.New(schema.E("x", schema.Scalar(schema.Float)))
func E(key string, t Type) Entry { return Entry{Key: key, Type: t} }

// Schema maps unique key names to types. Keys iterate in insertion order;
// the order is deterministic but never semantically significant. A nil
// *Schema behaves as an empty schema for all read operations.
type Schema struct {
	keys  []string
	types map[string]Type
}

// New builds a schema from entries. A repeated key keeps its original
// position and takes the last type given for it.
func New(entries ...Entry) *Schema {
	s := &Schema{types: make(map[string]Type, len(entries))}
	for _, e := range entries {
		s.Set(e.Key, e.Type)
	}
	return s
}

// Set inserts or overwrites a key. Overwriting keeps the key's original
// insertion position.
func (s *Schema) Set(key string, t Type) {
	if s.types == nil {
		s.types = make(map[string]Type)
	}
	if _, ok := s.types[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.types[key] = t
}

// Get returns the type for key, or nil if the key is absent.
func (s *Schema) Get(key string) Type {
	if s == nil {
		return nil
	}
	return s.types[key]
}

// Has reports whether key is present.
func (s *Schema) Has(key string) bool {
	if s == nil {
		return false
	}
	_, ok := s.types[key]
	return ok
}

// Len returns the number of keys.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the key names in insertion order. The slice is a copy.
func (s *Schema) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Entries returns all entries in insertion order.
func (s *Schema) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, Entry{Key: k, Type: s.types[k]})
	}
	return out
}

// Clone returns an independent copy. Types themselves are immutable and
// are shared.
func (s *Schema) Clone() *Schema {
	out := &Schema{types: make(map[string]Type, s.Len())}
	if s == nil {
		return out
	}
	out.keys = append(out.keys, s.keys...)
	for k, t := range s.types {
		out.types[k] = t
	}
	return out
}

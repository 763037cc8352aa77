package value

// Object is an insertion-ordered string-keyed map of values.
type Object struct {
	keys   []string
	fields map[string]Value
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{fields: make(map[string]Value)}
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	v, ok := o.fields[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set stores v under key. A new key is appended; an existing key keeps its
// position.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.fields[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = v
}

// Delete removes key.
func (o *Object) Delete(key string) {
	if _, ok := o.fields[key]; !ok {
		return
	}
	delete(o.fields, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Rename moves the value under from to to, keeping from's position. It
// overwrites an existing to key.
func (o *Object) Rename(from, to string) {
	v, ok := o.fields[from]
	if !ok || from == to {
		return
	}
	o.Delete(to)
	delete(o.fields, from)
	for i, k := range o.keys {
		if k == from {
			o.keys[i] = to
			break
		}
	}
	o.fields[to] = v
}

// Clone returns a deep copy.
func (o *Object) Clone() *Object {
	out := NewObject()
	if o == nil {
		return out
	}
	for _, k := range o.keys {
		out.Set(k, o.fields[k].Clone())
	}
	return out
}

// Equal reports deep equality, ignoring key order.
func (o *Object) Equal(other *Object) bool {
	if o.Len() != other.Len() {
		return false
	}
	for _, k := range o.Keys() {
		a, _ := o.Get(k)
		b, ok := other.Get(k)
		if !ok || !a.Equal(b) {
			return false
		}
	}
	return true
}

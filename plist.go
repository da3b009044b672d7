package weft

import "reflect"

// Property is a single name/value metadata pair.
type Property struct {
	Name  string
	Value any
}

// PropertyList is an ordered mapping of property names to values.
// Each name appears at most once; insertion order is preserved.
// Lists are always deep-copied when assigned to an interval, never
// shared by reference between intervals.
type PropertyList []Property

// Get returns the value for name and whether it is present.
func (pl PropertyList) Get(name string) (any, bool) {
	for _, p := range pl {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// Has reports whether name is present.
func (pl PropertyList) Has(name string) bool {
	_, ok := pl.Get(name)
	return ok
}

// Put overwrites an existing entry for name or appends a new one.
func (pl *PropertyList) Put(name string, value any) {
	for i := range *pl {
		if (*pl)[i].Name == name {
			(*pl)[i].Value = value
			return
		}
	}
	*pl = append(*pl, Property{Name: name, Value: value})
}

// Drop removes the entry for name, reporting whether it was present.
func (pl *PropertyList) Drop(name string) bool {
	for i := range *pl {
		if (*pl)[i].Name == name {
			*pl = append((*pl)[:i], (*pl)[i+1:]...)
			return true
		}
	}
	return false
}

// Copy returns an independent copy of the list.
func (pl PropertyList) Copy() PropertyList {
	if len(pl) == 0 {
		return nil
	}
	out := make(PropertyList, len(pl))
	copy(out, pl)
	return out
}

// Equal reports whether both lists hold the same name set with deeply
// equal values. Order is not significant.
func (pl PropertyList) Equal(other PropertyList) bool {
	if len(pl) != len(other) {
		return false
	}
	for _, p := range pl {
		v, ok := other.Get(p.Name)
		if !ok || !reflect.DeepEqual(p.Value, v) {
			return false
		}
	}
	return true
}

// propsFromPairs builds a PropertyList from a flat name/value pair
// sequence. An odd-length sequence or a non-string name is an error.
// Later pairs with a repeated name overwrite earlier ones.
func propsFromPairs(pairs []any) (PropertyList, error) {
	if len(pairs)%2 != 0 {
		return nil, ErrOddPropertyList
	}
	var pl PropertyList
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			return nil, ErrPropertyName
		}
		pl.Put(name, pairs[i+1])
	}
	return pl, nil
}

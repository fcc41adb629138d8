package idec

// Entry matches a word when word&Mask == Expected.
type Entry[G ~uint32] struct {
	Mask     uint32
	Expected uint32
	Value    G
}

// Table is an ordered decode table. Lookup order is declaration order.
type Table[G ~uint32] []Entry[G]

// Undefined returns the sentinel every table yields when nothing matches.
func Undefined[G ~uint32]() G {
	return ^G(0)
}

// Lookup returns the value of the first entry matching v, or Undefined.
func (t Table[G]) Lookup(v uint32) G {
	for _, e := range t {
		if v&e.Mask == e.Expected {
			return e.Value
		}
	}
	return Undefined[G]()
}

// Matches returns every entry value matching v, in table order.
func (t Table[G]) Matches(v uint32) []G {
	var out []G
	for _, e := range t {
		if v&e.Mask == e.Expected {
			out = append(out, e.Value)
		}
	}
	return out
}

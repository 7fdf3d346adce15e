package store

// ServerTimestamp marks a field to be stamped with the store's server clock
// at write time. Caller clocks never reach timestamp fields.
var ServerTimestamp = serverTimestamp{}

type serverTimestamp struct{}

// Union marks a field for an atomic set-union append. Concurrent unions are
// commutative; exact duplicate values collapse to one entry.
type Union struct {
	Values []any
}

func ArrayUnion(values ...any) Union {
	return Union{Values: values}
}

package rest

// Optional adapts a not-found REST result into a present/absent pair instead
// of forcing every caller to match on [APIError].
type Optional[T any] struct {
	Value   T
	Present bool
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Some returns a present Optional wrapping v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Present: true}
}

// GetOptional performs fn and converts a [KindNotFound] [*APIError] into an
// absent [Optional] instead of propagating the error. Any other error is
// returned unchanged.
func GetOptional[T any](fn func(out *T) error) (Optional[T], error) {
	var v T
	err := fn(&v)
	if err == nil {
		return Some(v), nil
	}
	if IsNotFound(err) {
		return None[T](), nil
	}
	return Optional[T]{}, err
}

package connectedloader

// ValueCloner is an interface for cloning values.
// It is used to clone values before they are handed to callers of a Loader.
// The CloneValue method should return a deep copy of the input value.
type ValueCloner[V any] interface {
	CloneValue(V) V
}

// ValueClonerFunc is a function type that implements the ValueCloner interface.
type ValueClonerFunc[V any] func(v V) V

// CloneValue calls the function.
func (f ValueClonerFunc[V]) CloneValue(v V) V {
	return f(v)
}

// NopValueCloner is a value cloner that does not clone values.
// It is the default of Loader: every caller observes the very same value.
type NopValueCloner[V any] struct{}

// CloneValue returns the input value.
func (NopValueCloner[V]) CloneValue(v V) V {
	return v
}

// DefaultValueCloner returns a cloner that uses the Clone or DeepCopy method of the value type.
// It returns a NopValueCloner if the value type has neither of them.
func DefaultValueCloner[V any]() ValueCloner[V] {
	type cloner interface {
		Clone() V
	}
	type deepCopier interface {
		DeepCopy() V
	}

	var zero V
	switch any(zero).(type) {
	case cloner:
		return ValueClonerFunc[V](func(v V) V {
			return any(v).(cloner).Clone()
		})
	case deepCopier:
		return ValueClonerFunc[V](func(v V) V {
			return any(v).(deepCopier).DeepCopy()
		})
	default:
		return NopValueCloner[V]{}
	}
}

package yaml

import (
	"fmt"
	"reflect"
)

// RepresenterFunc turns an application value back into a plain node
// before emission.
type RepresenterFunc func(v UserValue) (*Node, error)

// A Representer maps user value types to representation functions. The
// serializer consults it for every UserKind node.
type Representer struct {
	byType map[reflect.Type]RepresenterFunc
}

// NewRepresenter returns an empty representer.
func NewRepresenter() *Representer {
	return &Representer{byType: make(map[reflect.Type]RepresenterFunc)}
}

// Add registers fn for values of the same dynamic type as sample.
func (r *Representer) Add(sample UserValue, fn RepresenterFunc) {
	r.byType[reflect.TypeOf(sample)] = fn
}

// Represent converts a user value to a plain node.
func (r *Representer) Represent(v UserValue) (*Node, error) {
	fn, ok := r.byType[reflect.TypeOf(v)]
	if !ok {
		return nil, fmt.Errorf("no representer registered for %T", v)
	}
	n, err := fn(v)
	if err != nil {
		return nil, err
	}
	if n == nil || n.Kind() == UserKind {
		return nil, fmt.Errorf("representer for %T must produce a plain node", v)
	}
	return n, nil
}

package models

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes an absent JSON field from an explicit null.
//
//	{}            -> Set=false
//	{"x": null}   -> Set=true, Null=true
//	{"x": "v"}    -> Set=true, Value="v"
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a set, non-null Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns a set Optional carrying an explicit null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON is only invoked for fields present in the document.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(b, &o.Value)
}

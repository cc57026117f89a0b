package mediastore

// Decoder turns the current row of a cursor into an item. It must only read
// the row and should fail when a field it needs is missing.
type Decoder[T any] interface {
	Decode(r Row) (T, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc[T any] func(r Row) (T, error)

// Decode calls f(r).
func (f DecoderFunc[T]) Decode(r Row) (T, error) {
	return f(r)
}

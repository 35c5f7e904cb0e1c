// Package codec serializes decoded register values to bytes so they can be
// stored, logged or shipped next to the raw register images.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

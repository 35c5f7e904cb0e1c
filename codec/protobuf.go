package codec

import (
	"fmt"

	"github.com/unkn0wn-root/regcodec"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type Protobuf[T proto.Message] struct {
	new func() T // constructor for a concrete message (e.g., func() *structpb.Struct { return &structpb.Struct{} })
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.Marshal(v)
}
func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}

// ValueProto stores a regcodec.Value as a google.protobuf.Struct with
// "kind" and "data" string fields, readable by any protobuf consumer
// without a generated schema.
type ValueProto struct{}

var _ Codec[regcodec.Value] = ValueProto{}

func (ValueProto) Encode(v regcodec.Value) ([]byte, error) {
	r := RecordOf(v)
	s, err := structpb.NewStruct(map[string]any{"kind": r.Kind, "data": r.Data})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func (ValueProto) Decode(b []byte) (regcodec.Value, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return regcodec.Value{}, err
	}
	kind, ok := s.GetFields()["kind"]
	if !ok {
		return regcodec.Value{}, fmt.Errorf("codec: value message without kind")
	}
	r := Record{Kind: kind.GetStringValue(), Data: s.GetFields()["data"].GetStringValue()}
	return r.Value()
}

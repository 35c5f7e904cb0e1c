package codec

import "github.com/unkn0wn-root/regcodec"

// Record is the serializable form of a regcodec.Value: its kind name and
// exact text form. The zero Record is the null value.
type Record struct {
	Kind string `json:"kind" cbor:"kind" msgpack:"kind"`
	Data string `json:"data,omitempty" cbor:"data,omitempty" msgpack:"data,omitempty"`
}

func RecordOf(v regcodec.Value) Record {
	if v.IsNull() {
		return Record{}
	}
	return Record{Kind: v.Kind().String(), Data: v.String()}
}

// Value parses r back into a regcodec.Value.
func (r Record) Value() (regcodec.Value, error) {
	if r.Kind == "" {
		return regcodec.Value{}, nil
	}
	k, err := regcodec.ParseKind(r.Kind)
	if err != nil {
		return regcodec.Value{}, err
	}
	return regcodec.ParseValue(k, r.Data)
}

// Values adapts a Record codec into a codec for regcodec.Value.
type Values struct {
	Inner Codec[Record]
}

func (c Values) Encode(v regcodec.Value) ([]byte, error) {
	return c.Inner.Encode(RecordOf(v))
}

func (c Values) Decode(b []byte) (regcodec.Value, error) {
	r, err := c.Inner.Decode(b)
	if err != nil {
		return regcodec.Value{}, err
	}
	return r.Value()
}

package modbusio

import (
	"fmt"
	"strconv"

	"github.com/unkn0wn-root/regcodec"
)

// Table is a Modbus register table.
type Table uint8

const (
	Holding Table = iota // read/write, function codes 3, 6, 16
	Input                // read-only, function code 4
)

func (t Table) String() string {
	switch t {
	case Holding:
		return "holding"
	case Input:
		return "input"
	}
	return "Table(" + strconv.Itoa(int(t)) + ")"
}

func ParseTable(s string) (Table, error) {
	switch s {
	case "holding", "":
		return Holding, nil
	case "input":
		return Input, nil
	}
	return 0, fmt.Errorf("modbusio: unknown table %q", s)
}

func (t Table) MarshalText() ([]byte, error) {
	if t > Input {
		return nil, fmt.Errorf("modbusio: unknown table %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *Table) UnmarshalText(b []byte) error {
	v, err := ParseTable(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Block locates one field on a device: the table, the zero-based start
// address and how its registers are encoded.
type Block struct {
	Table   Table  `json:"table"`
	Address uint16 `json:"address"`
	regcodec.Field
}

// Key names the block in a register bank, e.g. "holding:40+2". The register
// count is part of the key so overlapping views of one address never share
// an image.
func (b Block) Key() string {
	return b.Table.String() + ":" + strconv.Itoa(int(b.Address)) + "+" + strconv.Itoa(b.Length)
}

package regcodec

import (
	"fmt"
	"math"
	"math/big"
)

// Uint128 is an unsigned 128-bit integer.
type Uint128 struct {
	Hi, Lo uint64
}

// Int128 is a two's complement signed 128-bit integer. The sign is the top bit of Hi.
type Int128 struct {
	Hi, Lo uint64
}

var (
	MaxUint128 = Uint128{Hi: math.MaxUint64, Lo: math.MaxUint64}
	MaxInt128  = Int128{Hi: math.MaxInt64, Lo: math.MaxUint64}
	MinInt128  = Int128{Hi: 1 << 63}
)

var (
	two128      = new(big.Int).Lsh(big.NewInt(1), 128)
	mask64      = new(big.Int).SetUint64(math.MaxUint64)
	minInt128Bn = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxInt128Bn = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
)

func Uint128From64(v uint64) Uint128 { return Uint128{Lo: v} }

func Int128From64(v int64) Int128 {
	var hi uint64
	if v < 0 {
		hi = math.MaxUint64
	}
	return Int128{Hi: hi, Lo: uint64(v)}
}

// Big returns u as a new big.Int.
func (u Uint128) Big() *big.Int {
	n := new(big.Int).SetUint64(u.Hi)
	n.Lsh(n, 64)
	return n.Or(n, new(big.Int).SetUint64(u.Lo))
}

// Big returns i as a new big.Int.
func (i Int128) Big() *big.Int {
	n := Uint128(i).Big()
	if i.Negative() {
		n.Sub(n, two128)
	}
	return n
}

func (i Int128) Negative() bool { return i.Hi>>63 == 1 }

func (u Uint128) String() string { return u.Big().String() }
func (i Int128) String() string  { return i.Big().String() }

// Uint128FromBig converts n, reporting false when it does not fit.
func Uint128FromBig(n *big.Int) (Uint128, bool) {
	if n.Sign() < 0 || n.BitLen() > 128 {
		return Uint128{}, false
	}
	lo := new(big.Int).And(n, mask64).Uint64()
	hi := new(big.Int).Rsh(n, 64).Uint64()
	return Uint128{Hi: hi, Lo: lo}, true
}

// Int128FromBig converts n, reporting false when it does not fit.
func Int128FromBig(n *big.Int) (Int128, bool) {
	if n.Cmp(minInt128Bn) < 0 || n.Cmp(maxInt128Bn) > 0 {
		return Int128{}, false
	}
	m := n
	if n.Sign() < 0 {
		m = new(big.Int).Add(n, two128)
	}
	u, _ := Uint128FromBig(m)
	return Int128(u), true
}

func ParseUint128(s string) (Uint128, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Uint128{}, fmt.Errorf("regcodec: invalid uint128 %q", s)
	}
	u, ok := Uint128FromBig(n)
	if !ok {
		return Uint128{}, fmt.Errorf("%w: %s does not fit uint128", ErrRange, s)
	}
	return u, nil
}

func ParseInt128(s string) (Int128, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Int128{}, fmt.Errorf("regcodec: invalid int128 %q", s)
	}
	i, ok := Int128FromBig(n)
	if !ok {
		return Int128{}, fmt.Errorf("%w: %s does not fit int128", ErrRange, s)
	}
	return i, nil
}

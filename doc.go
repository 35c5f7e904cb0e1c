// Package regcodec transcodes typed values to and from fixed-length blocks of
// 16-bit registers, the storage unit of Modbus-style industrial protocols.
//
// Components:
//   - ByteOrder / Layout: how a data source orders bytes within the block and
//     whether it transmits multi-register values with the word order reversed.
//   - Encoding: how the bytes map to a logical value (Int, IntAndScaleFactor,
//     IEEE754, UTF8, UTF16, IPAddress, RawBytes).
//   - Value: tagged union of the logical types (bool, 8..128 bit integers,
//     floats, strings, IP addresses, byte blocks).
//   - Codec: immutable engine combining a Layout with the encoding rules.
//
// Pipeline:
//
//	Serialize:   value -> canonical big-endian buffer (2*length bytes) -> ByteOrder -> words -> word swap
//	Deserialize: registers -> word swap -> bytes -> ByteOrder -> canonical buffer -> value
//
// Every rejected call returns a *CodecError wrapping one of the Err* sentinels.
// Nothing is clamped or guessed; the only lossy rule is string truncation to
// the block size.
//
// Example:
//
//	c := regcodec.Construct(true, regcodec.LittleEndian)
//	regs, _ := regcodec.Encode(c, 5.88, 2, regcodec.IntAndScaleFactor, true, regcodec.ScaleBy(0.01))
//	v, _ := regcodec.Decode[float64](c, regs, regcodec.IntAndScaleFactor, true, regcodec.ScaleBy(0.01))
package regcodec

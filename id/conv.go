package id

import "encoding/binary"

// ErrOverflow is returned by the narrowing conversions (U256 -> u8/u16/
// u32/u64/u128) when the value does not fit the target width.
type ErrOverflow struct {
	Width int
}

func (e *ErrOverflow) Error() string {
	switch e.Width {
	case 8:
		return "id: value does not fit in u8"
	case 16:
		return "id: value does not fit in u16"
	case 32:
		return "id: value does not fit in u32"
	case 64:
		return "id: value does not fit in u64"
	case 128:
		return "id: value does not fit in u128"
	default:
		return "id: value does not fit in target width"
	}
}

// nonZeroPrefix reports whether any byte in a.Bytes[:n] is non-zero.
func nonZeroPrefix(a U256, n int) bool {
	for _, b := range a.Bytes[:n] {
		if b != 0 {
			return true
		}
	}
	return false
}

// ToUint8 performs a lossy-checked narrowing conversion to uint8.
func (a U256) ToUint8() (uint8, error) {
	if nonZeroPrefix(a, 31) {
		return 0, &ErrOverflow{Width: 8}
	}
	return a.Bytes[31], nil
}

// ToUint16 performs a lossy-checked narrowing conversion to uint16.
func (a U256) ToUint16() (uint16, error) {
	if nonZeroPrefix(a, 30) {
		return 0, &ErrOverflow{Width: 16}
	}
	return binary.BigEndian.Uint16(a.Bytes[30:32]), nil
}

// ToUint32 performs a lossy-checked narrowing conversion to uint32.
func (a U256) ToUint32() (uint32, error) {
	if nonZeroPrefix(a, 28) {
		return 0, &ErrOverflow{Width: 32}
	}
	return binary.BigEndian.Uint32(a.Bytes[28:32]), nil
}

// ToUint64 performs a lossy-checked narrowing conversion to uint64.
func (a U256) ToUint64() (uint64, error) {
	if nonZeroPrefix(a, 24) {
		return 0, &ErrOverflow{Width: 64}
	}
	return binary.BigEndian.Uint64(a.Bytes[24:32]), nil
}

// Uint128 is a 128-bit unsigned integer split into high and low uint64
// halves, used by ToUint128/FromUint128 since Go has no native u128.
type Uint128 struct {
	Hi, Lo uint64
}

// ToUint128 performs a lossy-checked narrowing conversion to Uint128.
func (a U256) ToUint128() (Uint128, error) {
	if nonZeroPrefix(a, 16) {
		return Uint128{}, &ErrOverflow{Width: 128}
	}
	return Uint128{
		Hi: binary.BigEndian.Uint64(a.Bytes[16:24]),
		Lo: binary.BigEndian.Uint64(a.Bytes[24:32]),
	}, nil
}

// FromUint128 builds a U256 from a Uint128, placed in the low-order bytes.
func FromUint128(v Uint128) U256 {
	var out U256
	binary.BigEndian.PutUint64(out.Bytes[16:24], v.Hi)
	binary.BigEndian.PutUint64(out.Bytes[24:32], v.Lo)
	return out
}

// FromUint32 builds a U256 from a uint32, placed in the low-order bytes.
func FromUint32(v uint32) U256 {
	var out U256
	binary.BigEndian.PutUint32(out.Bytes[28:32], v)
	return out
}

// FromUint16 builds a U256 from a uint16, placed in the low-order bytes.
func FromUint16(v uint16) U256 {
	var out U256
	binary.BigEndian.PutUint16(out.Bytes[30:32], v)
	return out
}

// FromUint8 builds a U256 from a uint8, placed in the low-order byte.
func FromUint8(v uint8) U256 {
	var out U256
	out.Bytes[31] = v
	return out
}

// ToBytes32 returns the lossless big-endian byte-array form.
func (a U256) ToBytes32() [32]byte { return a.Bytes }

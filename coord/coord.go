// Package coord implements the bidirectional conversion between a signed
// 48-bit packed block id, a block coordinate (BC), and a node coordinate
// (NC). It is pure, allocation-free, and holds no state.
package coord

// BC is a block coordinate: a 3-vector of 12-bit signed integers in
// [-2048, 2047].
type BC struct {
	X, Y, Z int32
}

// NC is a node coordinate: a 3-vector of 16-bit signed integers.
type NC struct {
	X, Y, Z int32
}

// signedFromUnsigned12 converts an unsigned 12-bit value (0..4095) to its
// signed interpretation in [-2048, 2047].
func signedFromUnsigned12(u uint32) int32 {
	v := int32(u & 0xfff)
	if v >= 2048 {
		v -= 4096
	}
	return v
}

// Pack converts a block coordinate into its signed 48-bit packed id:
// id = ((z & 0xFFF) << 24) | ((y & 0xFFF) << 12) | (x & 0xFFF).
func Pack(bc BC) int64 {
	x := uint32(bc.X) & 0xfff
	y := uint32(bc.Y) & 0xfff
	z := uint32(bc.Z) & 0xfff
	return int64(z)<<24 | int64(y)<<12 | int64(x)
}

// Unpack converts a packed block id back into a block coordinate. It is the
// exact inverse of Pack for every id produced by Pack over the valid range.
func Unpack(id int64) BC {
	x := signedFromUnsigned12(uint32(id))
	y := signedFromUnsigned12(uint32(id >> 12))
	z := signedFromUnsigned12(uint32(id >> 24))
	return BC{X: x, Y: y, Z: z}
}

// PackNode converts a block coordinate and a local node index (0..4095,
// decomposed as x:4 low bits, y:4 middle bits, z:4 high bits) into a node
// coordinate.
func PackNode(bc BC, localIndex int) NC {
	lx := int32(localIndex & 0xf)
	ly := int32((localIndex >> 4) & 0xf)
	lz := int32((localIndex >> 8) & 0xf)
	return NC{
		X: bc.X<<4 | lx,
		Y: bc.Y<<4 | ly,
		Z: bc.Z<<4 | lz,
	}
}

// BlockOf returns the block coordinate containing a node coordinate.
func BlockOf(nc NC) BC {
	return BC{X: nc.X >> 4, Y: nc.Y >> 4, Z: nc.Z >> 4}
}

// LocalIndexOf returns the 0..4095 local node index of a node coordinate
// within its containing block.
func LocalIndexOf(nc NC) int {
	lx := int(nc.X) & 0xf
	ly := int(nc.Y) & 0xf
	lz := int(nc.Z) & 0xf
	return lz<<8 | ly<<4 | lx
}

// PackBlockOfNode is equivalent to Pack(BlockOf(nc)) and is provided because
// it is the hot path used when emitting analytic rows keyed by block id.
func PackBlockOfNode(nc NC) int64 {
	return Pack(BlockOf(nc))
}

// PackNodeID packs a node coordinate into the 48-bit "pos_id" used by the
// analytic sink's nodes/inventory tables: the same axis order as Pack (z
// high, x low), but with 16 bits per axis for full node-resolution
// coordinates: id = ((z & 0xFFFF) << 32) | ((y & 0xFFFF) << 16) | (x & 0xFFFF).
func PackNodeID(nc NC) int64 {
	x := uint32(nc.X) & 0xffff
	y := uint32(nc.Y) & 0xffff
	z := uint32(nc.Z) & 0xffff
	return int64(z)<<32 | int64(y)<<16 | int64(x)
}

// Inside reports whether bc lies in the half-open cube [min, max) --
// min is inclusive, max is exclusive on every axis.
func Inside(bc, min, max BC) bool {
	return bc.X >= min.X && bc.X < max.X &&
		bc.Y >= min.Y && bc.Y < max.Y &&
		bc.Z >= min.Z && bc.Z < max.Z
}

// Sort mutates *a and *b so that a holds the component-wise minimum and b
// holds the component-wise maximum.
func Sort(a, b *BC) {
	if b.X < a.X {
		a.X, b.X = b.X, a.X
	}
	if b.Y < a.Y {
		a.Y, b.Y = b.Y, a.Y
	}
	if b.Z < a.Z {
		a.Z, b.Z = b.Z, a.Z
	}
}

// Min returns the lowest representable block coordinate on every axis.
func Min() BC { return BC{X: -2048, Y: -2048, Z: -2048} }

// Max returns the highest representable block coordinate on every axis
// (inclusive; callers wanting a half-open upper bound add one).
func Max() BC { return BC{X: 2047, Y: 2047, Z: 2047} }

// Package blob provides a cursor over an immutable byte buffer with
// big-endian primitive reads, line reads, and nested zlib/zstd
// decompression, as used by the map-block decoder (see package decode).
package blob

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/mt-map-search/mapscan/errkind"
)

// Reader is a cursor over a borrowed byte slice. It never copies the
// underlying buffer; all reads advance an internal offset.
type Reader struct {
	buf []byte
	off int
}

// New wraps buf in a Reader starting at offset 0.
func New(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Size returns the total size of the underlying buffer.
func (r *Reader) Size() int { return len(r.buf) }

// Offset returns the current cursor offset.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// SizeCheck fails with a SerializationError if fewer than n bytes remain.
func (r *Reader) SizeCheck(n int, label string) error {
	if r.Remaining() < n {
		return errkind.NewSerializationError(r.Size(), r.off, r.Remaining(), label,
			"need %d bytes, only %d remaining", n, r.Remaining())
	}
	return nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int, label string) error {
	if err := r.SizeCheck(n, label); err != nil {
		return err
	}
	r.off += n
	return nil
}

// ReadU8 reads a single byte.
func (r *Reader) ReadU8(label string) (uint8, error) {
	if err := r.SizeCheck(1, label); err != nil {
		return 0, err
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

// ReadU16 reads a big-endian uint16.
func (r *Reader) ReadU16(label string) (uint16, error) {
	if err := r.SizeCheck(2, label); err != nil {
		return 0, err
	}
	v := uint16(r.buf[r.off])<<8 | uint16(r.buf[r.off+1])
	r.off += 2
	return v, nil
}

// ReadU32 reads a big-endian uint32.
func (r *Reader) ReadU32(label string) (uint32, error) {
	if err := r.SizeCheck(4, label); err != nil {
		return 0, err
	}
	v := uint32(r.buf[r.off])<<24 | uint32(r.buf[r.off+1])<<16 |
		uint32(r.buf[r.off+2])<<8 | uint32(r.buf[r.off+3])
	r.off += 4
	return v, nil
}

// ReadS32 reads a big-endian signed int32.
func (r *Reader) ReadS32(label string) (int32, error) {
	v, err := r.ReadU32(label)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// ReadStr reads exactly n bytes and returns them as a string.
func (r *Reader) ReadStr(n int, label string) (string, error) {
	if err := r.SizeCheck(n, label); err != nil {
		return "", err
	}
	s := string(r.buf[r.off : r.off+n])
	r.off += n
	return s, nil
}

// ReadLine reads bytes up to and including a terminating '\n', returning the
// line without the terminator. Every byte before the newline must be
// printable ASCII (0x20..0x7e); anything else is a SerializationError.
func (r *Reader) ReadLine(label string) (string, error) {
	start := r.off
	for i := r.off; i < len(r.buf); i++ {
		b := r.buf[i]
		if b == '\n' {
			line := string(r.buf[start:i])
			r.off = i + 1
			return line, nil
		}
		if b < 0x20 || b > 0x7e {
			return "", errkind.NewSerializationError(r.Size(), r.off, r.Remaining(), label,
				"non-printable byte 0x%02x before newline", b)
		}
	}
	return "", errkind.NewSerializationError(r.Size(), r.off, r.Remaining(), label,
		"unterminated line")
}

// DecompressZlib treats the cursor as the start of a zlib stream, inflates
// it fully, and advances the cursor to the first byte after the stream.
func (r *Reader) DecompressZlib(label string) ([]byte, error) {
	br := bytes.NewReader(r.buf[r.off:])
	zr, err := zlib.NewReader(br)
	if err != nil {
		return nil, errkind.NewSerializationError(r.Size(), r.off, r.Remaining(), label,
			"zlib open failed: %v", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, errkind.NewSerializationError(r.Size(), r.off, r.Remaining(), label,
			"zlib inflate failed: %v", err)
	}

	consumed := len(r.buf[r.off:]) - br.Len()
	r.off += consumed
	return out, nil
}

// DecompressZstd treats the cursor as the start of a zstd stream, decodes it
// fully, and advances the cursor to the first byte after the stream.
//
// Format 29 bodies are a single zstd stream occupying the entire remainder
// of the blob, so exact end-of-stream byte accounting (unlike DecompressZlib,
// which is nested inside a larger buffer with trailing fields) is not load
// bearing here.
func (r *Reader) DecompressZstd(label string) ([]byte, error) {
	br := bytes.NewReader(r.buf[r.off:])
	zr, err := zstd.NewReader(br)
	if err != nil {
		return nil, errkind.NewSerializationError(r.Size(), r.off, r.Remaining(), label,
			"zstd open failed: %v", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, errkind.NewSerializationError(r.Size(), r.off, r.Remaining(), label,
			"zstd decode failed: %v", err)
	}

	consumed := len(r.buf[r.off:]) - br.Len()
	r.off += consumed
	return out, nil
}

// HexPreview returns a short hex dump of the remaining bytes, useful for
// diagnostics attached to a SerializationError.
func (r *Reader) HexPreview(max int) string {
	n := r.Remaining()
	if n > max {
		n = max
	}
	return fmt.Sprintf("%x", r.buf[r.off:r.off+n])
}

// Package ivd defines the command protocol between a decode driver and a
// stateful video decoder instance. The decoder itself is opaque: the driver
// only sees the operations of the Decoder interface and the fields of
// DecodeOutput. A native codec can sit behind this interface via a foreign
// binding; refdec provides a pure-Go implementation.
package ivd

import "errors"

// Mode selects which decode phase a Decode call runs in. Header mode parses
// stream headers only and reports picture geometry without producing output;
// frame mode decodes full pictures into the supplied output planes, with no
// frame skipping and display-order output implied.
type Mode int

const (
	ModeHeader Mode = iota
	ModeFrame
)

// ErrorCode carries the decoder's status for one Decode call. Only the low
// byte is meaningful to the driver; everything above it is decoder-internal
// detail and is ignored.
type ErrorCode uint32

// ResChanged in the low byte of an ErrorCode signals that the stream's
// picture dimensions changed mid-stream. The instance must be Reset and the
// same input resubmitted before decoding can continue.
const ResChanged ErrorCode = 0x16

// ResolutionChanged reports whether the low byte of e signals a mid-stream
// resolution change.
func (e ErrorCode) ResolutionChanged() bool {
	return e&0xFF == ResChanged
}

// Allocator supplies aligned buffers for decoder-side and output-plane
// allocations. Implementations must return a slice of exactly size bytes
// whose first byte lies on an align-byte boundary (align a power of two).
type Allocator interface {
	AlignedAlloc(align, size int) []byte
	AlignedFree(buf []byte)
}

// DecodeInput is one Decode submission: the remaining input bytes and, once
// output buffers exist, one plane slice per output plane. OutPlanes is nil
// during header discovery.
type DecodeInput struct {
	Data      []byte
	OutPlanes [][]byte
}

// DecodeOutput is the decoder's response to one Decode call. BytesConsumed
// may be zero when the decoder refuses the input; the driver is responsible
// for forcing forward progress in that case. Width and Height report the
// picture geometry as currently known to the decoder, zero while unknown.
type DecodeOutput struct {
	BytesConsumed int
	ErrorCode     ErrorCode
	Width         int
	Height        int
}

// ErrCreateFailed is returned by Create when the decoder instance could not
// be brought up. It is the only failure a driver treats as fatal.
var ErrCreateFailed = errors.New("ivd: decoder instance creation failed")

// Decoder is one decoder instance driven through its lifecycle by a single
// caller. All calls are synchronous; the decoder may parallelize internally
// (see SetCores) but returns a single result per call. The required call
// order is Create, SetCores, SetMode/Decode as needed, Destroy. Create is
// the only operation that can fail; after a Create error no further calls
// may be issued. Destroy must be called exactly once per created instance.
type Decoder interface {
	Create(format ColorFormat, alloc Allocator) error
	Destroy()
	Reset()
	SetCores(n int)
	SetMode(m Mode)
	Decode(in DecodeInput) DecodeOutput
}

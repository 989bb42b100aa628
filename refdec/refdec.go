// Package refdec is a pure-Go reference implementation of ivd.Decoder, so
// the drive harness, corpus runner, and fuzz targets run without a native
// codec. It behaves like a header-scanning decoder: it walks Annex B start
// codes one NAL unit per Decode call, parses H.264 sequence parameter sets
// to track picture geometry, and signals a resolution change when a later
// SPS disagrees with the geometry it already adopted. It never decodes
// pixels and never panics on malformed input.
package refdec

import (
	"fmt"

	"github.com/lifehackerhansol-android/android-external-libavc/ivd"
)

const nalTypeSPS = 7

const scratchAlign = 16

// Decoder is one reference decoder instance. Not safe for concurrent use;
// like a native instance it expects a single synchronous caller.
type Decoder struct {
	created bool
	format  ivd.ColorFormat
	cores   int
	mode    ivd.Mode
	alloc   ivd.Allocator
	width   int
	height  int
}

// New returns an instance ready for Create.
func New() *Decoder {
	return &Decoder{}
}

// Create brings the instance up. It fails on a nil allocator or when the
// instance was already created; both wrap ivd.ErrCreateFailed.
func (d *Decoder) Create(format ivd.ColorFormat, alloc ivd.Allocator) error {
	if d.created {
		return fmt.Errorf("%w: instance already created", ivd.ErrCreateFailed)
	}
	if alloc == nil {
		return fmt.Errorf("%w: nil allocator", ivd.ErrCreateFailed)
	}
	d.created = true
	d.format = format
	d.alloc = alloc
	return nil
}

// Destroy tears the instance down. A destroyed instance can be created
// again, which keeps one Decoder reusable across harness calls.
func (d *Decoder) Destroy() {
	*d = Decoder{}
}

// Reset drops the adopted geometry, as after a resolution change. The next
// SPS encountered is accepted unconditionally.
func (d *Decoder) Reset() {
	d.width = 0
	d.height = 0
}

// SetCores records the requested internal worker count. The reference
// decoder is synchronous regardless; the hint only shapes the protocol.
func (d *Decoder) SetCores(n int) {
	d.cores = n
}

func (d *Decoder) SetMode(m ivd.Mode) {
	d.mode = m
}

// Decode consumes at most one NAL unit from the input. Input with no start
// code reports zero bytes consumed, exercising the caller's forced-progress
// path. In frame mode an SPS that changes an already adopted geometry is
// answered with ResChanged and nothing is adopted; after a Reset the
// resubmitted unit is accepted.
func (d *Decoder) Decode(in ivd.DecodeInput) ivd.DecodeOutput {
	nal, consumed := firstNAL(in.Data)
	out := ivd.DecodeOutput{BytesConsumed: consumed, Width: d.width, Height: d.height}
	if len(nal) < 2 || nal[0]&0x1F != nalTypeSPS {
		return out
	}

	scratch := d.alloc.AlignedAlloc(scratchAlign, len(nal))
	rbsp := unescapeRBSP(scratch[:0], nal[1:])
	info, err := parseSPS(rbsp)
	d.alloc.AlignedFree(scratch)
	if err != nil || info.width <= 0 || info.height <= 0 {
		return out
	}

	if d.mode == ivd.ModeFrame && d.width != 0 &&
		(info.width != d.width || info.height != d.height) {
		out.ErrorCode = ivd.ResChanged
		return out
	}

	d.width = info.width
	d.height = info.height
	out.Width = d.width
	out.Height = d.height
	return out
}

// firstNAL extracts the first NAL unit from an Annex B stream: data after
// the first start code up to (not including) the next one. consumed is the
// offset of that next start code, or the full length when the stream ends
// inside the unit. Both 3-byte and 4-byte start codes are recognized. No
// start code at all yields (nil, 0).
func firstNAL(data []byte) (nal []byte, consumed int) {
	_, dataStart := findStartCode(data, 0)
	if dataStart < 0 {
		return nil, 0
	}
	next, _ := findStartCode(data, dataStart)
	if next < 0 {
		return data[dataStart:], len(data)
	}
	return data[dataStart:next], next
}

func findStartCode(data []byte, from int) (scStart, dataStart int) {
	for i := from; i+3 <= len(data); i++ {
		if data[i] != 0 || data[i+1] != 0 {
			continue
		}
		if data[i+2] == 1 {
			return i, i + 3
		}
		if i+4 <= len(data) && data[i+2] == 0 && data[i+3] == 1 {
			return i, i + 4
		}
	}
	return -1, -1
}

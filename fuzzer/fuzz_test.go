package fuzzer

import (
	"testing"

	"github.com/lifehackerhansol-android/android-external-libavc/ivd"
	"github.com/lifehackerhansol-android/android-external-libavc/refdec"
)

func FuzzRun(f *testing.F) {
	// Seed: Annex B SPS for 1280x720 so header discovery succeeds.
	sps := []byte{
		0x00, 0x00, 0x00, 0x01,
		0x67, 0x64, 0x00, 0x1f, 0xac, 0xd9, 0x40, 0x50,
		0x05, 0xbb, 0xff, 0x00, 0x03, 0x00, 0x04, 0x6a,
		0x02, 0x02, 0x02, 0x80, 0x00, 0x01, 0xf4, 0x80,
		0x00, 0x5d, 0xc0, 0x07, 0x8c, 0x18, 0xcb,
	}
	f.Add(sps)

	// Seed: bare start code, single byte, and garbage shorter than the
	// configuration probe offsets.
	f.Add([]byte{0x00, 0x00, 0x01, 0x67})
	f.Add([]byte{0x00})
	f.Add([]byte{0xFF, 0xFF, 0xFF})

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 1<<14 {
			return
		}
		dec := refdec.New()
		Run(dec, data) // must terminate without panicking

		// No cross-session leakage: the same input drives an identical,
		// fully torn down session the second time.
		Run(dec, data)
	})
}

// The driver must survive a pathological decoder that lies about geometry
// and consumption on every call.
func FuzzRunHostileDecoder(f *testing.F) {
	f.Add([]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}, 0, 50000)
	f.Add(make([]byte, 64), 3, -1)

	f.Fuzz(func(t *testing.T, data []byte, consumed, dim int) {
		if len(data) > 1<<10 {
			return
		}
		// Keep geometry lies small so buffer churn stays cheap; the clamp
		// bound itself is covered by TestGeometryClampedToMax.
		dec := &hostileDecoder{consumed: consumed, dim: abs(dim) % 640}
		Run(dec, data)
		if dec.creates == 1 && dec.destroys != 1 {
			t.Errorf("creates = %d, destroys = %d", dec.creates, dec.destroys)
		}
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// hostileDecoder reports whatever consumption and geometry it was seeded
// with, flipping the resolution-change signal on alternating calls.
type hostileDecoder struct {
	consumed int
	dim      int
	calls    int
	creates  int
	destroys int
}

func (d *hostileDecoder) Create(format ivd.ColorFormat, alloc ivd.Allocator) error {
	d.creates++
	return nil
}

func (d *hostileDecoder) Destroy()         { d.destroys++ }
func (d *hostileDecoder) Reset()           {}
func (d *hostileDecoder) SetCores(n int)   {}
func (d *hostileDecoder) SetMode(ivd.Mode) {}

func (d *hostileDecoder) Decode(in ivd.DecodeInput) ivd.DecodeOutput {
	d.calls++
	out := ivd.DecodeOutput{
		BytesConsumed: d.consumed,
		Width:         d.dim,
		Height:        d.dim + d.calls%2,
	}
	if d.calls%2 == 0 {
		out.ErrorCode = ivd.ResChanged
	}
	return out
}

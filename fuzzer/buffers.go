package fuzzer

import (
	"unsafe"

	"github.com/lifehackerhansol-android/android-external-libavc/ivd"
)

// planeAlign is the byte alignment required for every output plane buffer.
const planeAlign = 16

// FrameBuffers owns the output plane buffers for one decoder session. The
// set is either fully empty or holds one buffer per plane of the format it
// was last allocated for, each at least its computed size and aligned to
// planeAlign. Alloc releases the previous generation before acquiring the
// new one, so buffers sized for a prior geometry can never leak into a
// Decode call after a resolution change.
type FrameBuffers struct {
	alloc  ivd.Allocator
	sizes  []int
	planes [][]byte
}

// NewFrameBuffers returns an empty buffer set that allocates through alloc.
func NewFrameBuffers(alloc ivd.Allocator) *FrameBuffers {
	return &FrameBuffers{alloc: alloc}
}

// Alloc sizes and acquires the plane buffers for a width×height picture in
// the given format, releasing any previous allocation first.
func (b *FrameBuffers) Alloc(format ivd.ColorFormat, width, height int) {
	b.Release()
	b.sizes = format.PlaneSizes(width, height)
	b.planes = make([][]byte, len(b.sizes))
	for i, size := range b.sizes {
		b.planes[i] = b.alloc.AlignedAlloc(planeAlign, size)
	}
}

// Release returns every plane buffer to the allocator and empties the set.
// Safe to call on an already empty set.
func (b *FrameBuffers) Release() {
	for _, p := range b.planes {
		b.alloc.AlignedFree(p)
	}
	b.planes = nil
	b.sizes = nil
}

// Planes returns the current plane buffers, nil when the set is empty.
func (b *FrameBuffers) Planes() [][]byte {
	return b.planes
}

// PlaneSizes returns the byte size computed for each current plane.
func (b *FrameBuffers) PlaneSizes() []int {
	return b.sizes
}

// HeapAllocator implements ivd.Allocator on the Go heap. The runtime does
// not expose allocation alignment, so it over-allocates and slices forward
// to the requested boundary; Go heap objects do not move, so the alignment
// holds for the buffer's lifetime. Free is a no-op: the backing array is
// reclaimed by the garbage collector once unreferenced.
type HeapAllocator struct{}

func (HeapAllocator) AlignedAlloc(align, size int) []byte {
	if size <= 0 {
		return []byte{}
	}
	raw := make([]byte, size+align-1)
	rem := int(uintptr(unsafe.Pointer(&raw[0])) & uintptr(align-1))
	off := 0
	if rem != 0 {
		off = align - rem
	}
	return raw[off : off+size : off+size]
}

func (HeapAllocator) AlignedFree(buf []byte) {}

package ivd

import "testing"

func TestPlaneSizes(t *testing.T) {
	t.Parallel()
	const w, h = 320, 240
	cases := []struct {
		format ColorFormat
		sizes  []int
	}{
		{YUV420Planar, []int{76800, 19200, 19200}},
		{YUV420SemiPlanarUV, []int{76800, 38400}},
		{YUV420SemiPlanarVU, []int{76800, 38400}},
		{YUV422Interleaved, []int{153600}},
		{RGB565, []int{153600}},
		{RGBA8888, []int{307200}},
	}
	for _, tc := range cases {
		got := tc.format.PlaneSizes(w, h)
		if len(got) != len(tc.sizes) {
			t.Fatalf("%v: got %d planes, want %d", tc.format, len(got), len(tc.sizes))
		}
		for i := range got {
			if got[i] != tc.sizes[i] {
				t.Errorf("%v plane %d: size = %d, want %d", tc.format, i, got[i], tc.sizes[i])
			}
		}
		if tc.format.PlaneCount() != len(tc.sizes) {
			t.Errorf("%v: PlaneCount = %d, want %d", tc.format, tc.format.PlaneCount(), len(tc.sizes))
		}
	}
}

// An out-of-catalog format value deliberately takes the planar 4:2:0 formula
// instead of failing. Decoders are still handed a fully sized buffer set no
// matter what format value reaches the allocation path.
func TestPlaneSizes_UnknownFormatFallsBack(t *testing.T) {
	t.Parallel()
	bogus := ColorFormat(99)
	want := YUV420Planar.PlaneSizes(64, 48)
	got := bogus.PlaneSizes(64, 48)
	if len(got) != len(want) {
		t.Fatalf("got %d planes, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("plane %d: size = %d, want %d", i, got[i], want[i])
		}
	}
	if bogus.PlaneCount() != 3 {
		t.Errorf("PlaneCount = %d, want 3", bogus.PlaneCount())
	}
}

func TestResolutionChanged(t *testing.T) {
	t.Parallel()
	if !ResChanged.ResolutionChanged() {
		t.Error("ResChanged should report a resolution change")
	}
	// Upper bytes are decoder-internal detail and must not mask the signal.
	if !(ErrorCode(0xAB00) | ResChanged).ResolutionChanged() {
		t.Error("high bytes should be ignored")
	}
	if ErrorCode(0).ResolutionChanged() {
		t.Error("zero error code is not a resolution change")
	}
}

func TestPlaneCountWithinMax(t *testing.T) {
	t.Parallel()
	for _, f := range Formats {
		if n := f.PlaneCount(); n < 1 || n > MaxPlanes {
			t.Errorf("%v: plane count %d outside [1,%d]", f, n, MaxPlanes)
		}
	}
}

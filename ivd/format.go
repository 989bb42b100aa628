package ivd

// ColorFormat identifies an output pixel layout: how many planes a decoded
// picture occupies and how many bytes each plane needs for a given geometry.
type ColorFormat int

const (
	YUV420Planar ColorFormat = iota
	YUV420SemiPlanarUV
	YUV420SemiPlanarVU
	YUV422Interleaved
	RGB565
	RGBA8888
)

// Formats lists every supported color format in fixed catalog order. The
// order is load-bearing: config selection indexes into it by input byte.
var Formats = [...]ColorFormat{
	YUV420Planar,
	YUV420SemiPlanarUV,
	YUV420SemiPlanarVU,
	YUV422Interleaved,
	RGB565,
	RGBA8888,
}

// MaxPlanes is the largest plane count any format can require.
const MaxPlanes = 4

func (f ColorFormat) String() string {
	switch f {
	case YUV420Planar:
		return "yuv420p"
	case YUV420SemiPlanarUV:
		return "yuv420sp-uv"
	case YUV420SemiPlanarVU:
		return "yuv420sp-vu"
	case YUV422Interleaved:
		return "yuv422ile"
	case RGB565:
		return "rgb565"
	case RGBA8888:
		return "rgba8888"
	}
	return "unknown"
}

// PlaneCount returns the number of output planes for f. Unrecognized values
// take the planar 4:2:0 layout, matching PlaneSizes.
func (f ColorFormat) PlaneCount() int {
	switch f {
	case YUV420SemiPlanarUV, YUV420SemiPlanarVU:
		return 2
	case YUV422Interleaved, RGB565, RGBA8888:
		return 1
	}
	return 3
}

// PlaneSizes returns the byte size of each output plane for a width×height
// picture in format f. Total function: any unrecognized format value falls
// back to the planar 4:2:0 formula rather than failing.
func (f ColorFormat) PlaneSizes(width, height int) []int {
	px := width * height
	switch f {
	case YUV420SemiPlanarUV, YUV420SemiPlanarVU:
		return []int{px, px / 2}
	case YUV422Interleaved:
		return []int{px * 2}
	case RGB565:
		return []int{px * 2}
	case RGBA8888:
		return []int{px * 4}
	}
	return []int{px, px / 4, px / 4}
}

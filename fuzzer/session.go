// Package fuzzer drives a stateful video decoder through its full lifecycle
// against arbitrary, possibly malformed input: configuration selection,
// instance creation, header discovery, output buffer allocation, the
// per-frame decode loop, and teardown. The driver never decodes anything
// itself; its contract is that driving the decoder is safe and terminating
// for every input, including empty and truncated ones.
package fuzzer

import (
	"log/slog"

	"github.com/lifehackerhansol-android/android-external-libavc/ivd"
)

const (
	// maxDimension bounds decoder-reported geometry before it reaches any
	// allocation, blocking unbounded allocations from malformed headers.
	maxDimension = 10240

	// Dimensions used when header discovery yields nothing usable, so the
	// frame loop always runs against a valid buffer geometry.
	defaultWidth  = 1920
	defaultHeight = 1088

	// minConsume is substituted when the decoder reports zero bytes
	// consumed, bounding every decode loop at ceil(len/minConsume)
	// iterations regardless of decoder behavior.
	minConsume = 4
)

// Session owns one decoder instance end to end. It is single-threaded and
// single-use: create it, call Run once, discard it. No state is shared
// between sessions.
type Session struct {
	log    *slog.Logger
	dec    ivd.Decoder
	cfg    Config
	alloc  ivd.Allocator
	width  int
	height int
	bufs   *FrameBuffers
}

// NewSession prepares a session for one decoder instance with the given
// configuration. A nil logger falls back to slog.Default.
func NewSession(dec ivd.Decoder, cfg Config, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	alloc := HeapAllocator{}
	return &Session{
		log:   log,
		dec:   dec,
		cfg:   cfg,
		alloc: alloc,
		bufs:  NewFrameBuffers(alloc),
	}
}

// Run is the harness entry point: it derives a configuration from data and
// drives a complete session over it. Safe for any input; an empty input is
// a no-op. Each call is fully independent, with its own session and buffer
// set torn down before returning.
func Run(dec ivd.Decoder, data []byte) {
	if len(data) == 0 {
		return
	}
	NewSession(dec, SelectConfig(data), nil).Run(data)
}

// Run drives the full lifecycle over data: create, header discovery, frame
// loop, teardown. Instance creation is the only fatal condition; every
// decoder-reported error afterwards is absorbed and the loop keeps
// advancing. Terminates within O(len(data)) decoder calls.
func (s *Session) Run(data []byte) {
	if len(data) == 0 {
		return
	}
	if err := s.dec.Create(s.cfg.Format, s.alloc); err != nil {
		s.log.Debug("decoder create failed, session abandoned", "error", err)
		return
	}
	s.dec.SetCores(s.cfg.Cores)
	s.log.Debug("session started", "format", s.cfg.Format, "cores", s.cfg.Cores)

	data = s.discoverHeader(data)
	s.dec.SetMode(ivd.ModeFrame)
	s.allocFrame()

	for len(data) > 0 {
		consumed := min(s.decodeFrame(data), len(data))
		data = data[consumed:]
	}

	s.bufs.Release()
	s.dec.Destroy()
}

// discoverHeader runs the decoder in header-only mode over the input until
// it reports a nonzero geometry or the input is exhausted, returning the
// unconsumed remainder for the frame loop. The cursor advances by at least
// minConsume per iteration even when the decoder consumes nothing, so the
// loop cannot stall.
func (s *Session) discoverHeader(data []byte) []byte {
	s.dec.SetMode(ivd.ModeHeader)

	for len(data) > 0 {
		out := s.dec.Decode(ivd.DecodeInput{Data: data})

		consumed := out.BytesConsumed
		if consumed <= 0 {
			consumed = minConsume
		}
		data = data[min(consumed, len(data)):]

		s.width = clampDim(out.Width)
		s.height = clampDim(out.Height)

		if s.width > 0 && s.height > 0 {
			break
		}
	}

	// A garbage stream may never produce a header; the frame loop still
	// needs valid dimensions to size buffers against.
	if s.width == 0 {
		s.width = defaultWidth
	}
	if s.height == 0 {
		s.height = defaultHeight
	}
	s.log.Debug("header phase done", "width", s.width, "height", s.height)
	return data
}

// allocFrame sizes the output buffer set for the session's current format
// and geometry, dropping any previous generation first.
func (s *Session) allocFrame() {
	s.bufs.Alloc(s.cfg.Format, s.width, s.height)
}

// decodeFrame submits one chunk in frame mode and returns the number of
// bytes to advance by, never zero. A resolution-change signal resets the
// instance and resubmits the identical chunk once: the first submission is
// a discovery probe, not a decode result. A reported geometry differing
// from the session's triggers buffer reallocation before the next call.
func (s *Session) decodeFrame(data []byte) int {
	in := ivd.DecodeInput{Data: data, OutPlanes: s.bufs.Planes()}

	out := s.dec.Decode(in)
	if out.ErrorCode.ResolutionChanged() {
		s.log.Debug("resolution change signalled, resetting")
		s.dec.Reset()
		out = s.dec.Decode(in)
	}

	consumed := out.BytesConsumed
	if consumed <= 0 {
		consumed = minConsume
	}

	if out.Width != s.width || out.Height != s.height {
		s.width = clampDim(out.Width)
		s.height = clampDim(out.Height)
		s.allocFrame()
	}
	return consumed
}

// clampDim bounds a decoder-reported dimension to [0, maxDimension].
func clampDim(v int) int {
	if v < 0 {
		return 0
	}
	return min(v, maxDimension)
}

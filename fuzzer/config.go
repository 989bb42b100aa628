package fuzzer

import "github.com/lifehackerhansol-android/android-external-libavc/ivd"

// Byte offsets within the input from which the session configuration is
// derived. Inputs shorter than these reuse their last byte instead.
const (
	offsetColorFormat = 6
	offsetNumCores    = 7
)

const maxCores = 4

// Config is the per-session decoder configuration, fixed before the decoder
// instance is created and immutable afterwards.
type Config struct {
	Format ivd.ColorFormat
	Cores  int
}

// SelectConfig derives a Config from the input prefix. Total for any input
// of length >= 1: probe offsets beyond the input are clamped to the last
// available byte, so short inputs still map to a deterministic configuration.
func SelectConfig(data []byte) Config {
	formatOfst := min(offsetColorFormat, len(data)-1)
	coresOfst := min(offsetNumCores, len(data)-1)
	return Config{
		Format: ivd.Formats[int(data[formatOfst])%len(ivd.Formats)],
		Cores:  int(data[coresOfst])%maxCores + 1,
	}
}

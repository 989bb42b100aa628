package fuzzer

import (
	"testing"

	"github.com/lifehackerhansol-android/android-external-libavc/ivd"
)

func TestSelectConfigOffsets(t *testing.T) {
	t.Parallel()
	data := make([]byte, 16)
	data[offsetColorFormat] = 3 // yuv422ile
	data[offsetNumCores] = 6    // 6 % 4 + 1 = 3
	cfg := SelectConfig(data)
	if cfg.Format != ivd.YUV422Interleaved {
		t.Errorf("Format = %v, want %v", cfg.Format, ivd.YUV422Interleaved)
	}
	if cfg.Cores != 3 {
		t.Errorf("Cores = %d, want 3", cfg.Cores)
	}
}

// Inputs shorter than the probe offsets reuse their last byte: both probes
// land on index len-1 and never read out of bounds.
func TestSelectConfigShortInput(t *testing.T) {
	t.Parallel()
	for n := 1; n <= offsetNumCores+1; n++ {
		data := make([]byte, n)
		data[n-1] = 7 // format 7 % 6 = 1, cores 7 % 4 + 1 = 4
		cfg := SelectConfig(data)

		wantFormat := ivd.Formats[7%len(ivd.Formats)]
		wantCores := 7%maxCores + 1
		if n > offsetColorFormat {
			wantFormat = ivd.Formats[int(data[offsetColorFormat])%len(ivd.Formats)]
		}
		if n > offsetNumCores {
			wantCores = int(data[offsetNumCores])%maxCores + 1
		}
		if cfg.Format != wantFormat || cfg.Cores != wantCores {
			t.Errorf("len %d: got %v/%d, want %v/%d", n, cfg.Format, cfg.Cores, wantFormat, wantCores)
		}
	}
}

// A 7-byte input has its format probe on offset 6 and its cores probe
// clamped from 7 to 6: both selectors read the same byte.
func TestSelectConfigSevenBytes(t *testing.T) {
	t.Parallel()
	cfg := SelectConfig(make([]byte, 7))
	if cfg.Format != ivd.YUV420Planar {
		t.Errorf("Format = %v, want %v", cfg.Format, ivd.YUV420Planar)
	}
	if cfg.Cores != 1 {
		t.Errorf("Cores = %d, want 1", cfg.Cores)
	}
}

func TestSelectConfigCoresRange(t *testing.T) {
	t.Parallel()
	for b := 0; b < 256; b++ {
		data := make([]byte, offsetNumCores+1)
		data[offsetNumCores] = byte(b)
		if cores := SelectConfig(data).Cores; cores < 1 || cores > maxCores {
			t.Fatalf("byte %#x: cores %d outside [1,%d]", b, cores, maxCores)
		}
	}
}

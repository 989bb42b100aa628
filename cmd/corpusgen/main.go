// Command corpusgen extracts H.264 elementary streams from MP4 files into
// Annex B corpus files for avcfuzz, converting AVCC length-prefixed samples
// to start-code form and inserting parameter sets before keyframes.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/spf13/cobra"
)

var outDir string

var rootCmd = &cobra.Command{
	Use:           "corpusgen <file.mp4>...",
	Short:         "Extract Annex B H.264 streams from MP4 files into a fuzz corpus.",
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	rootCmd.Flags().StringVarP(&outDir, "out", "o", "corpus", "directory to write corpus files into")
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err := rootCmd.Execute(); err != nil {
		slog.Error("corpus generation failed", "error", err)
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, path := range args {
		es, err := extract(path)
		if err != nil {
			return fmt.Errorf("extract %s: %w", path, err)
		}
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		out := filepath.Join(outDir, base+".h264")
		if err := os.WriteFile(out, es, 0o644); err != nil {
			return err
		}
		slog.Info("corpus file written", "input", path, "output", out, "bytes", len(es))
	}
	return nil
}

func extract(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mp4File, err := mp4.DecodeFile(f)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}
	if mp4File.IsFragmented() {
		return extractFragmented(mp4File)
	}
	return extractProgressive(mp4File, f)
}

// findVideoTrack locates the first "vide" track and its avcC sample entry.
func findVideoTrack(moov *mp4.MoovBox) (*mp4.TrakBox, *mp4.AvcCBox) {
	if moov == nil {
		return nil, nil
	}
	for _, trak := range moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		var avcC *mp4.AvcCBox
		if trak.Mdia.Minf != nil && trak.Mdia.Minf.Stbl != nil && trak.Mdia.Minf.Stbl.Stsd != nil {
			for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
				if avc1, ok := child.(*mp4.VisualSampleEntryBox); ok {
					avcC = avc1.AvcC
				}
			}
		}
		return trak, avcC
	}
	return nil, nil
}

// parameterSets renders the avcC SPS and PPS NAL units in Annex B form.
func parameterSets(avcC *mp4.AvcCBox) []byte {
	if avcC == nil {
		return nil
	}
	var out []byte
	for _, sps := range avcC.SPSnalus {
		out = append(out, 0, 0, 0, 1)
		out = append(out, sps...)
	}
	for _, pps := range avcC.PPSnalus {
		out = append(out, 0, 0, 0, 1)
		out = append(out, pps...)
	}
	return out
}

func extractFragmented(mp4File *mp4.File) ([]byte, error) {
	var trak *mp4.TrakBox
	var avcC *mp4.AvcCBox
	if mp4File.Init != nil {
		trak, avcC = findVideoTrack(mp4File.Init.Moov)
	}
	if trak == nil {
		return nil, fmt.Errorf("no video track found")
	}

	var trex *mp4.TrexBox
	if mp4File.Init.Moov.Mvex != nil {
		for _, t := range mp4File.Init.Moov.Mvex.Trexs {
			if t.TrackID == trak.Tkhd.TrackID {
				trex = t
				break
			}
		}
	}

	spsPPS := parameterSets(avcC)
	var es []byte
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd.TrackID != trak.Tkhd.TrackID {
					continue
				}
				samples, err := frag.GetFullSamples(trex)
				if err != nil {
					return nil, fmt.Errorf("get samples: %w", err)
				}
				for i, sample := range samples {
					if i == 0 || sample.Flags == mp4.SyncSampleFlags {
						es = append(es, spsPPS...)
					}
					es = append(es, avccToAnnexB(sample.Data)...)
				}
			}
		}
	}
	return es, nil
}

func extractProgressive(mp4File *mp4.File, rs *os.File) ([]byte, error) {
	trak, avcC := findVideoTrack(mp4File.Moov)
	if trak == nil {
		return nil, fmt.Errorf("no video track found")
	}
	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz == nil || stbl.Stsc == nil {
		return nil, fmt.Errorf("incomplete sample table")
	}

	syncSamples := make(map[uint32]bool)
	if stbl.Stss != nil {
		for _, nr := range stbl.Stss.SampleNumber {
			syncSamples[nr] = true
		}
	}

	spsPPS := parameterSets(avcC)
	var es []byte
	for nr := uint32(1); nr <= stbl.Stsz.SampleNumber; nr++ {
		sample, err := readSample(stbl, rs, nr)
		if err != nil {
			slog.Debug("skipping unreadable sample", "sample", nr, "error", err)
			continue
		}
		if nr == 1 || syncSamples[nr] || len(syncSamples) == 0 {
			es = append(es, spsPPS...)
		}
		es = append(es, avccToAnnexB(sample)...)
	}
	return es, nil
}

// readSample reads one sample's raw bytes by resolving its chunk offset
// through the stsc/stco/co64/stsz boxes.
func readSample(stbl *mp4.StblBox, rs *os.File, sampleNr uint32) ([]byte, error) {
	chunkNr, firstSampleInChunk, err := stbl.Stsc.ChunkNrFromSampleNr(int(sampleNr))
	if err != nil {
		return nil, err
	}

	var chunkOffset uint64
	switch {
	case stbl.Stco != nil:
		chunkOffset, err = stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return nil, err
		}
	case stbl.Co64 != nil:
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return nil, fmt.Errorf("chunk %d out of range", chunkNr)
		}
		chunkOffset = stbl.Co64.ChunkOffset[chunkNr-1]
	default:
		return nil, fmt.Errorf("no chunk offset box")
	}

	offset := chunkOffset
	for s := uint32(firstSampleInChunk); s < sampleNr; s++ {
		offset += uint64(stbl.Stsz.GetSampleSize(int(s)))
	}

	size := stbl.Stsz.GetSampleSize(int(sampleNr))
	buf := make([]byte, size)
	if _, err := rs.ReadAt(buf, int64(offset)); err != nil {
		return nil, err
	}
	return buf, nil
}

// avccToAnnexB rewrites 4-byte length-prefixed NAL units as start-code
// delimited ones, dropping a trailing truncated unit.
func avccToAnnexB(data []byte) []byte {
	var out []byte
	for off := 0; off+4 <= len(data); {
		n := int(data[off])<<24 | int(data[off+1])<<16 | int(data[off+2])<<8 | int(data[off+3])
		off += 4
		if n < 0 || off+n > len(data) {
			break
		}
		out = append(out, 0, 0, 0, 1)
		out = append(out, data[off:off+n]...)
		off += n
	}
	return out
}

// Package mp4probe reads video stream metadata from MP4 files with mp4ff,
// without decoding any samples.
package mp4probe

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/ftvideo/pkg/ports"
)

// Info describes the first video track of an MP4 file.
type Info struct {
	Codec      string
	Width      int
	Height     int
	FrameRate  float64
	Frames     int
	Duration   time.Duration
	Fragmented bool
}

// StreamInfo converts the probe result to the port type.
func (i Info) StreamInfo() ports.StreamInfo {
	return ports.StreamInfo{
		FrameRate: i.FrameRate,
		Width:     i.Width,
		Height:    i.Height,
		Codec:     i.Codec,
		Duration:  i.Duration,
		Container: "mp4",
	}
}

// IsMP4 reports whether path has an ISO-BMFF file extension.
func IsMP4(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".m4v", ".mov", ".3gp":
		return true
	}
	return false
}

// Probe opens path through fs and reads its first video track.
func Probe(fs ports.FileSystem, path string) (Info, error) {
	f, err := fs.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ports.ErrOpen, err)
	}
	defer f.Close()

	return ProbeReader(f)
}

// ProbeReader reads the first video track from an MP4 stream.
func ProbeReader(reader io.ReadSeeker) (Info, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return Info{}, fmt.Errorf("%w: decode mp4: %v", ports.ErrOpen, err)
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return Info{}, fmt.Errorf("%w: seek: %v", ports.ErrOpen, err)
	}

	return probeFile(mp4File)
}

func probeFile(mp4File *mp4.File) (Info, error) {
	var moov *mp4.MoovBox
	switch {
	case mp4File.Moov != nil:
		moov = mp4File.Moov
	case mp4File.Init != nil && mp4File.Init.Moov != nil:
		moov = mp4File.Init.Moov
	default:
		return Info{}, fmt.Errorf("%w: no moov box", ports.ErrNoVideoStream)
	}

	for _, trak := range moov.Traks {
		info, ok := probeTrack(trak)
		if !ok {
			continue
		}
		info.Fragmented = mp4File.IsFragmented()

		timescale := uint32(0)
		if trak.Mdia.Mdhd != nil {
			timescale = trak.Mdia.Mdhd.Timescale
		}
		var frames int
		var total uint64
		if info.Fragmented {
			frames, total = fragmentDurations(mp4File, trak.Tkhd.TrackID)
		} else {
			frames, total = sttsDurations(trak)
		}
		info.Frames = frames
		if timescale > 0 && total > 0 {
			info.FrameRate = float64(timescale) * float64(frames) / float64(total)
			info.Duration = time.Duration(float64(total) / float64(timescale) * float64(time.Second))
		}
		return info, nil
	}

	return Info{}, fmt.Errorf("%w: no video track found", ports.ErrNoVideoStream)
}

func probeTrack(trak *mp4.TrakBox) (Info, bool) {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
		return Info{}, false
	}
	if trak.Mdia.Hdlr.HandlerType != "vide" {
		return Info{}, false
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return Info{}, false
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		vse, ok := child.(*mp4.VisualSampleEntryBox)
		if !ok {
			continue
		}
		return Info{
			Codec:  codecName(child.Type()),
			Width:  int(vse.Width),
			Height: int(vse.Height),
		}, true
	}
	return Info{}, false
}

func codecName(fourcc string) string {
	switch fourcc {
	case "avc1", "avc3":
		return "h264"
	case "hvc1", "hev1":
		return "hevc"
	case "av01":
		return "av1"
	case "vp08":
		return "vp8"
	case "vp09":
		return "vp9"
	default:
		return fourcc
	}
}

func sttsDurations(trak *mp4.TrakBox) (int, uint64) {
	stts := trak.Mdia.Minf.Stbl.Stts
	if stts == nil {
		return 0, 0
	}
	var frames int
	var total uint64
	for i, n := range stts.SampleCount {
		frames += int(n)
		total += uint64(n) * uint64(stts.SampleTimeDelta[i])
	}
	return frames, total
}

func fragmentDurations(mp4File *mp4.File, trackID uint32) (int, uint64) {
	var frames int
	var total uint64
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd == nil || traf.Tfhd.TrackID != trackID {
					continue
				}
				for _, trun := range traf.Truns {
					for _, s := range trun.Samples {
						frames++
						total += uint64(s.Dur)
					}
				}
			}
		}
	}
	return frames, total
}

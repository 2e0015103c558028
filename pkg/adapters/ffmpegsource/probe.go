package ffmpegsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/user/ftvideo/pkg/ports"
)

type probeData struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	Index        int    `json:"index"`
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	PixFmt       string `json:"pix_fmt"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	TimeBase     string `json:"time_base"`
	StartTime    string `json:"start_time"`
	Duration     string `json:"duration"`
}

type probeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	StartTime  string `json:"start_time"`
}

// probe runs ffprobe on path and returns the first video stream.
func probe(ctx context.Context, ffprobe, path string) (ports.StreamInfo, error) {
	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 1024 {
			msg = msg[:1024] + "..."
		}
		return ports.StreamInfo{}, fmt.Errorf("%w: ffprobe %s: %v (%s)", ports.ErrOpen, path, err, msg)
	}
	return parseProbe(out)
}

// parseProbe extracts the first video stream from ffprobe JSON output.
func parseProbe(out []byte) (ports.StreamInfo, error) {
	var data probeData
	if err := json.Unmarshal(out, &data); err != nil {
		return ports.StreamInfo{}, fmt.Errorf("%w: decode ffprobe output: %v", ports.ErrOpen, err)
	}

	for _, s := range data.Streams {
		if s.CodecType != "video" {
			continue
		}
		avgNum, avgDen := parseRational(s.AvgFrameRate)
		if avgNum == 0 {
			avgNum, avgDen = parseRational(s.RFrameRate)
		}
		tbNum, tbDen := parseRational(s.TimeBase)

		duration := parseSeconds(s.Duration)
		if duration == 0 {
			duration = parseSeconds(data.Format.Duration)
		}

		info := ports.StreamInfo{
			FrameRate:   ports.ResolveFrameRate(avgNum, avgDen, tbNum, tbDen),
			Width:       s.Width,
			Height:      s.Height,
			PixelFormat: s.PixFmt,
			Codec:       s.CodecName,
			Duration:    duration,
			StartTime:   parseSeconds(s.StartTime),
			Container:   data.Format.FormatName,
		}
		if info.Width <= 0 || info.Height <= 0 {
			return ports.StreamInfo{}, fmt.Errorf("%w: invalid dimensions %dx%d", ports.ErrNoVideoStream, info.Width, info.Height)
		}
		if info.FrameRate <= 0 {
			return ports.StreamInfo{}, fmt.Errorf("%w: no usable frame rate", ports.ErrNoVideoStream)
		}
		return info, nil
	}

	return ports.StreamInfo{}, ports.ErrNoVideoStream
}

// parseRational parses "num/den" as reported by ffprobe. "0/0" and garbage
// yield 0/0.
func parseRational(s string) (int, int) {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return 0, 0
	}
	n, err1 := strconv.Atoi(num)
	d, err2 := strconv.Atoi(den)
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return n, d
}

func parseSeconds(s string) time.Duration {
	if s == "" || s == "N/A" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return time.Duration(v * float64(time.Second))
}

package playback

import (
	"encoding/json"

	"github.com/user/ftvideo/pkg/ports"
)

type streamInfoJSON struct {
	Codec       string  `json:"codec"`
	PixelFormat string  `json:"pixel_format"`
	Container   string  `json:"container,omitempty"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	FrameRate   float64 `json:"frame_rate"`
	DurationMs  int64   `json:"duration_ms"`
	StartTimeMs int64   `json:"start_time_ms"`
}

func marshalStreamInfo(info ports.StreamInfo) ([]byte, error) {
	return json.MarshalIndent(streamInfoJSON{
		Codec:       info.Codec,
		PixelFormat: info.PixelFormat,
		Container:   info.Container,
		Width:       info.Width,
		Height:      info.Height,
		FrameRate:   info.FrameRate,
		DurationMs:  info.Duration.Milliseconds(),
		StartTimeMs: info.StartTime.Milliseconds(),
	}, "", "  ")
}

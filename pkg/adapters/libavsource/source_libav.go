//go:build libav

package libavsource

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/asticode/go-astiav"

	"github.com/user/ftvideo/pkg/ports"
)

var logOnce sync.Once

// Available reports whether libav decoding is compiled in.
func Available() bool { return true }

// Opener opens files with libavformat and libavcodec.
type Opener struct {
	opts   Options
	logger ports.Logger
}

// NewOpener creates a libav opener.
func NewOpener(opts Options, logger ports.Logger) *Opener {
	logOnce.Do(func() {
		if opts.LogLibav {
			astiav.SetLogLevel(astiav.LogLevelWarning)
		} else {
			astiav.SetLogLevel(astiav.LogLevelQuiet)
		}
	})
	return &Opener{opts: opts, logger: logger.WithComponent("libav")}
}

// Open demuxes path, selects the first video stream and opens its decoder.
func (o *Opener) Open(ctx context.Context, path string) (ports.VideoSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &Source{path: path, logger: o.logger}
	if err := s.open(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

var _ ports.SourceOpener = (*Opener)(nil)

// Source is an opened media file. Decoded frames are converted to RGBA at
// their native size; scaling to the display happens in the converter.
type Source struct {
	path   string
	logger ports.Logger
	info   ports.StreamInfo

	fc       *astiav.FormatContext
	stream   *astiav.Stream
	codec    *astiav.Codec
	cc       *astiav.CodecContext
	pkt      *astiav.Packet
	decoded  *astiav.Frame
	rgba     *astiav.Frame
	ssc      *astiav.SoftwareScaleContext
	img      *image.RGBA
	draining bool
	index    int
	closed   bool

	sscW, sscH int
	sscFmt     astiav.PixelFormat
}

func (s *Source) open() error {
	s.fc = astiav.AllocFormatContext()
	if s.fc == nil {
		return fmt.Errorf("%w: format context", ports.ErrAllocation)
	}
	if err := s.fc.OpenInput(s.path, nil, nil); err != nil {
		s.fc.Free()
		s.fc = nil
		return fmt.Errorf("%w: %s: %v", ports.ErrOpen, s.path, err)
	}
	if err := s.fc.FindStreamInfo(nil); err != nil {
		return fmt.Errorf("%w: %s: stream info: %v", ports.ErrOpen, s.path, err)
	}

	for _, st := range s.fc.Streams() {
		if st.CodecParameters().MediaType() == astiav.MediaTypeVideo {
			s.stream = st
			break
		}
	}
	if s.stream == nil {
		return fmt.Errorf("%w: %s", ports.ErrNoVideoStream, s.path)
	}

	par := s.stream.CodecParameters()
	s.codec = astiav.FindDecoder(par.CodecID())
	if s.codec == nil {
		return fmt.Errorf("%w: %s", ports.ErrUnsupportedCodec, par.CodecID())
	}
	if err := s.openDecoder(); err != nil {
		return err
	}

	if s.pkt = astiav.AllocPacket(); s.pkt == nil {
		return fmt.Errorf("%w: packet", ports.ErrAllocation)
	}
	if s.decoded = astiav.AllocFrame(); s.decoded == nil {
		return fmt.Errorf("%w: frame", ports.ErrAllocation)
	}

	avg := s.stream.AvgFrameRate()
	tb := s.stream.TimeBase()
	fps := ports.ResolveFrameRate(avg.Num(), avg.Den(), tb.Num(), tb.Den())
	if fps <= 0 {
		return fmt.Errorf("%w: %s: no usable frame rate", ports.ErrNoVideoStream, s.path)
	}

	container := ""
	if f := s.fc.InputFormat(); f != nil {
		container = f.Name()
	}
	s.info = ports.StreamInfo{
		FrameRate:   fps,
		Width:       par.Width(),
		Height:      par.Height(),
		PixelFormat: s.cc.PixelFormat().String(),
		Codec:       s.codec.Name(),
		Duration:    time.Duration(s.fc.Duration()) * time.Microsecond,
		StartTime:   s.toDuration(s.startTimestamp()),
		Container:   container,
	}
	return nil
}

// openDecoder (re)creates the codec context. Rewinding reopens it so a
// drained decoder accepts packets again.
func (s *Source) openDecoder() error {
	if s.cc != nil {
		s.cc.Free()
		s.cc = nil
	}
	cc := astiav.AllocCodecContext(s.codec)
	if cc == nil {
		return fmt.Errorf("%w: codec context", ports.ErrAllocation)
	}
	if err := s.stream.CodecParameters().ToCodecContext(cc); err != nil {
		cc.Free()
		return fmt.Errorf("%w: %s: %v", ports.ErrUnsupportedCodec, s.codec.Name(), err)
	}
	if err := cc.Open(s.codec, nil); err != nil {
		cc.Free()
		return fmt.Errorf("%w: %s: %v", ports.ErrUnsupportedCodec, s.codec.Name(), err)
	}
	s.cc = cc
	s.draining = false
	return nil
}

func (s *Source) startTimestamp() int64 {
	// AV_NOPTS_VALUE is the minimum int64.
	if ts := s.stream.StartTime(); ts > 0 {
		return ts
	}
	return 0
}

func (s *Source) toDuration(ts int64) time.Duration {
	tb := s.stream.TimeBase()
	if tb.Den() == 0 {
		return 0
	}
	return time.Duration(float64(ts) * float64(tb.Num()) / float64(tb.Den()) * float64(time.Second))
}

func (s *Source) Info() ports.StreamInfo {
	return s.info
}

// NextVideoFrame decodes until a video frame is available. Packets of other
// streams are skipped. At end of file the decoder is drained.
func (s *Source) NextVideoFrame() (ports.VideoFrame, error) {
	if s.closed {
		return ports.VideoFrame{}, ports.ErrEndOfStream
	}

	for {
		err := s.cc.ReceiveFrame(s.decoded)
		switch {
		case err == nil:
			return s.convert()
		case errors.Is(err, astiav.ErrEof):
			return ports.VideoFrame{}, ports.ErrEndOfStream
		case !errors.Is(err, astiav.ErrEagain):
			return ports.VideoFrame{}, fmt.Errorf("%w: %v", ports.ErrDecode, err)
		}

		if s.draining {
			return ports.VideoFrame{}, ports.ErrEndOfStream
		}

		if err := s.fc.ReadFrame(s.pkt); err != nil {
			if !errors.Is(err, astiav.ErrEof) && !errors.Is(err, io.EOF) {
				s.logger.Debug("Reading packet failed: %v", err)
			}
			s.draining = true
			if err := s.cc.SendPacket(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
				return ports.VideoFrame{}, ports.ErrEndOfStream
			}
			continue
		}

		if s.pkt.StreamIndex() != s.stream.Index() {
			s.pkt.Unref()
			continue
		}
		err = s.cc.SendPacket(s.pkt)
		s.pkt.Unref()
		if err != nil && !errors.Is(err, astiav.ErrEagain) {
			return ports.VideoFrame{}, fmt.Errorf("%w: %v", ports.ErrDecode, err)
		}
	}
}

func (s *Source) convert() (ports.VideoFrame, error) {
	defer s.decoded.Unref()

	if err := s.ensureScaler(s.decoded); err != nil {
		return ports.VideoFrame{}, err
	}
	if err := s.ssc.ScaleFrame(s.decoded, s.rgba); err != nil {
		return ports.VideoFrame{}, fmt.Errorf("%w: scale: %v", ports.ErrDecode, err)
	}
	if _, err := s.rgba.ImageCopyToBuffer(s.img.Pix, 1); err != nil {
		return ports.VideoFrame{}, fmt.Errorf("%w: copy: %v", ports.ErrDecode, err)
	}

	idx := s.index
	s.index++
	return ports.VideoFrame{
		Image: s.img,
		Index: idx,
		PTS:   s.toDuration(s.decoded.Pts() - s.startTimestamp()),
	}, nil
}

// ensureScaler prepares a native-size conversion to RGBA for the geometry and
// pixel format of src.
func (s *Source) ensureScaler(src *astiav.Frame) error {
	w, h, pf := src.Width(), src.Height(), src.PixelFormat()
	if s.ssc != nil && w == s.sscW && h == s.sscH && pf == s.sscFmt {
		return nil
	}
	s.freeScaler()

	ssc, err := astiav.CreateSoftwareScaleContext(w, h, pf, w, h, astiav.PixelFormatRgba,
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagBilinear))
	if err != nil {
		return fmt.Errorf("%w: scaler %dx%d %s: %v", ports.ErrAllocation, w, h, pf, err)
	}
	dst := astiav.AllocFrame()
	dst.SetWidth(w)
	dst.SetHeight(h)
	dst.SetPixelFormat(astiav.PixelFormatRgba)
	if err := dst.AllocBuffer(1); err != nil {
		dst.Free()
		ssc.Free()
		return fmt.Errorf("%w: rgba frame: %v", ports.ErrAllocation, err)
	}
	n, err := dst.ImageBufferSize(1)
	if err != nil || n != w*h*4 {
		dst.Free()
		ssc.Free()
		return fmt.Errorf("%w: rgba buffer size %d for %dx%d", ports.ErrAllocation, n, w, h)
	}

	s.ssc, s.rgba = ssc, dst
	s.sscW, s.sscH, s.sscFmt = w, h, pf
	s.img = image.NewRGBA(image.Rect(0, 0, w, h))
	return nil
}

func (s *Source) freeScaler() {
	if s.rgba != nil {
		s.rgba.Free()
		s.rgba = nil
	}
	if s.ssc != nil {
		s.ssc.Free()
		s.ssc = nil
	}
}

// SeekToStart seeks backward to the stream's start timestamp and resets the
// decoder.
func (s *Source) SeekToStart() error {
	if s.closed {
		return fmt.Errorf("%w: source closed", ports.ErrSeek)
	}
	flags := astiav.NewSeekFlags(astiav.SeekFlagBackward)
	if err := s.fc.SeekFrame(s.stream.Index(), s.startTimestamp(), flags); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrSeek, err)
	}
	if err := s.openDecoder(); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrSeek, err)
	}
	s.index = 0
	return nil
}

// Close releases every libav resource. It is safe to call more than once.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.freeScaler()
	if s.decoded != nil {
		s.decoded.Free()
	}
	if s.pkt != nil {
		s.pkt.Free()
	}
	if s.cc != nil {
		s.cc.Free()
	}
	if s.fc != nil {
		s.fc.CloseInput()
		s.fc.Free()
	}
	return nil
}

var _ ports.VideoSource = (*Source)(nil)

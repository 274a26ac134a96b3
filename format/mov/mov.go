// Package mov reads and writes QuickTime movies whose video is motion-JPEG,
// with optional G.711 or raw PCM audio.
package mov

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/ugparu/boxmedia"
	"github.com/ugparu/boxmedia/codec/mjpeg"
	"github.com/ugparu/boxmedia/codec/pcm"
	"github.com/ugparu/boxmedia/format/mp4"
	"github.com/ugparu/boxmedia/format/mp4/mp4io"
	"github.com/ugparu/boxmedia/utils/config"
	"github.com/ugparu/boxmedia/utils/logger"
)

const Brand = "qt  "

var (
	ErrNoFrames     = errors.New("mov: no frames")
	ErrNoVideoTrack = errors.New("mov: no video track")
)

// DefaultOptions are the QuickTime defaults: 600 ticks per second, 15 fps,
// quality 75 and no size limit.
func DefaultOptions() config.Options {
	opts := config.Default()
	opts.Brand = Brand
	return opts
}

// Movie is a decoded file: the model, the first video track with its frames
// and, when its codec is supported, the first audio track as PCM.
type Movie struct {
	File        *mp4.FileModel
	Video       *mp4.Track
	VideoParams *mjpeg.CodecParameters
	Frames      []image.Image
	Audio       *mp4.Track
	AudioParams *pcm.CodecParameters
	PCM         []int16
}

func (m *Movie) String() string {
	return fmt.Sprintf("MOV frames=%d pcm=%d", len(m.Frames), len(m.PCM))
}

// Decode parses buf and decodes every frame of its first video track,
// downscaled to opts.MaxWidth×opts.MaxHeight.
func Decode(ctx context.Context, buf []byte, opts config.Options) (*Movie, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	file, err := mp4.ParseFile(buf)
	if err != nil {
		return nil, fmt.Errorf("mov: %w", err)
	}
	if file.FileType != nil && !file.FileType.Compatible(Brand) {
		logger.Debugf(file, "major brand %v is not QuickTime, decoding anyway", file.FileType.MajorBrand)
	}

	m := &Movie{File: file}
	for _, t := range file.VideoTracks() {
		if t.Codec() == boxmedia.MJPEG {
			m.Video = t
			break
		}
	}
	if m.Video == nil {
		return nil, ErrNoVideoTrack
	}

	locs, err := m.Video.Samples()
	if err != nil {
		return nil, fmt.Errorf("mov: video track %d: %w", m.Video.ID, err)
	}
	if len(locs) == 0 {
		return nil, ErrNoFrames
	}
	dec := mjpeg.NewDecoder(opts.MaxWidth, opts.MaxHeight)
	if m.Frames, err = mp4.DecodeFrames(ctx, buf, locs, dec, opts.Workers); err != nil {
		return nil, fmt.Errorf("mov: %w", err)
	}
	if len(m.Frames) == 0 {
		return nil, ErrNoFrames
	}
	fps := uint(m.Video.FrameRate(opts.FrameRate) + 0.5) //nolint:mnd
	if m.VideoParams, err = mjpeg.ParametersFromEntry(m.Video.ID, m.Video.Entry(), fps); err != nil {
		return nil, fmt.Errorf("mov: %w", err)
	}

	if err = m.decodeAudio(buf); err != nil {
		return nil, err
	}
	logger.Infof(m, "decoded %d frames from track %d", len(m.Frames), m.Video.ID)
	return m, nil
}

func (m *Movie) decodeAudio(buf []byte) error {
	for _, t := range m.File.AudioTracks() {
		par, err := pcm.ParametersFromEntry(t.ID, t.Entry())
		if err != nil {
			logger.Debugf(m, "skipping audio track %d: %v", t.ID, err)
			continue
		}
		dec, err := pcm.NewDecoderFor(par)
		if err != nil {
			logger.Debugf(m, "skipping audio track %d: %v", t.ID, err)
			continue
		}
		locs, err := t.Samples()
		if err != nil {
			return fmt.Errorf("mov: audio track %d: %w", t.ID, err)
		}
		if m.PCM, err = decodePCM(buf, locs, dec); err != nil {
			return fmt.Errorf("mov: audio track %d: %w", t.ID, err)
		}
		m.Audio, m.AudioParams = t, par
		return nil
	}
	return nil
}

// decodePCM decodes samples up to the first one that runs past buf.
func decodePCM(buf []byte, locs []mp4.SampleLocation, dec boxmedia.AudioDecoder) ([]int16, error) {
	var out []int16
	for i, loc := range locs {
		s, ok := mp4.Slice(buf, loc)
		if !ok {
			break
		}
		samples, err := dec.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		out = append(out, samples...)
	}
	return out, nil
}

// Audio is interleaved 16-bit PCM to be stored as G.711 next to the video.
type Audio struct {
	Codec      boxmedia.CodecType // PCMMulaw or PCMAlaw
	Channels   int
	SampleRate int
	Samples    []int16
}

// audioChunk is the duration of each stored audio sample.
const audioChunk = 100 * time.Millisecond

// Encode writes frames as a motion-JPEG QuickTime movie. Frames are scaled
// into opts.MaxWidth×opts.MaxHeight and encoded at opts.Quality. audio may
// be nil.
func Encode(frames []image.Image, audio *Audio, opts config.Options) ([]byte, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	enc := mjpeg.NewEncoder(opts.Quality, opts.MaxWidth, opts.MaxHeight)
	samples := make([][]byte, len(frames))
	for i, f := range frames {
		s, err := enc.Encode(f)
		if err != nil {
			return nil, fmt.Errorf("mov: frame %d: %w", i, err)
		}
		samples[i] = s
	}
	return EncodeSamples(samples, "jpeg", audio, opts)
}

// EncodeSamples writes pre-encoded JPEG samples with the given sample entry
// format ("jpeg" or "mjpa"). Frame size is read from the first sample.
func EncodeSamples(samples [][]byte, format string, audio *Audio, opts config.Options) ([]byte, error) {
	if len(samples) == 0 {
		return nil, ErrNoFrames
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if format != "jpeg" && format != "mjpa" {
		return nil, fmt.Errorf("mov: unsupported sample format %q", format)
	}
	w, h, err := mjpeg.Config(samples[0])
	if err != nil {
		return nil, fmt.Errorf("mov: frame 0: %w", err)
	}

	brand := opts.Brand
	if brand == "" {
		brand = Brand
	}
	mux := mp4.NewMuxer(nil, mp4io.NewFileType(brand, brand))
	mux.SetMovieTimeScale(opts.Timescale)

	par := mjpeg.NewCodecParameters(uint(w), uint(h), uint(opts.FrameRate+0.5)) //nolint:mnd
	par.Fourcc = mp4io.StringToTag(format)
	id, err := mux.AddTrack(mp4.TrackSpec{
		Kind:        boxmedia.VideoTrack,
		Entry:       par.SampleEntry(),
		TimeScale:   opts.Timescale,
		SampleDelta: mp4.SampleDelta(opts.Timescale, opts.FrameRate),
		Width:       float64(w),
		Height:      float64(h),
	})
	if err != nil {
		return nil, fmt.Errorf("mov: %w", err)
	}
	for _, s := range samples {
		if err = mux.WriteSample(id, s); err != nil {
			return nil, fmt.Errorf("mov: %w", err)
		}
	}

	if audio != nil && len(audio.Samples) > 0 {
		if err = addAudio(mux, audio); err != nil {
			return nil, err
		}
	}

	out, err := mux.Bytes()
	if err != nil {
		return nil, fmt.Errorf("mov: %w", err)
	}
	logger.Debugf(mux, "encoded %d frames %dx%d into %d bytes", len(samples), w, h, len(out))
	return out, nil
}

func addAudio(mux *mp4.Muxer, audio *Audio) error {
	enc, err := pcm.NewEncoder(audio.Codec, audio.Channels, audio.SampleRate)
	if err != nil {
		return fmt.Errorf("mov: %w", err)
	}
	par := enc.CodecParameters()
	id, err := mux.AddTrack(mp4.TrackSpec{
		Kind:        boxmedia.AudioTrack,
		Entry:       par.SampleEntry(),
		TimeScale:   uint32(par.SampleRate()), //nolint:gosec
		SampleDelta: 1,
	})
	if err != nil {
		return fmt.Errorf("mov: %w", err)
	}

	block := audio.Channels * int(time.Duration(audio.SampleRate)*audioChunk/time.Second)
	for start := 0; start < len(audio.Samples); start += block {
		chunk := audio.Samples[start:min(start+block, len(audio.Samples))]
		chunk = chunk[:len(chunk)-len(chunk)%audio.Channels]
		if len(chunk)/audio.Channels < 4 { //nolint:mnd
			break
		}
		encoded, err := enc.Encode(chunk)
		if err != nil {
			return fmt.Errorf("mov: %w", err)
		}
		if len(encoded) == 0 {
			continue
		}
		// One G.711 byte is one sample at the track timescale.
		pkt := &mp4.Packet{
			TrackID:  id,
			Data:     encoded,
			IsKey:    true,
			Duration: time.Duration(len(encoded)) * time.Second / time.Duration(par.SampleRate()),
		}
		if err = mux.WritePacket(pkt); err != nil {
			return fmt.Errorf("mov: %w", err)
		}
	}
	return nil
}

// Package threegp reads and writes 3GPP files whose video is motion-JPEG or
// pre-encoded H.263, with optional pre-encoded AMR audio.
package threegp

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/ugparu/boxmedia"
	"github.com/ugparu/boxmedia/codec/mjpeg"
	"github.com/ugparu/boxmedia/format/mp4"
	"github.com/ugparu/boxmedia/format/mp4/mp4io"
	"github.com/ugparu/boxmedia/utils/config"
	"github.com/ugparu/boxmedia/utils/logger"
)

const (
	Brand = "3gp4"

	// QCIF is the frame size 3GPP terminals are guaranteed to play.
	QCIFWidth  = 176
	QCIFHeight = 144

	amrSampleRate  = 8000
	amrFrameLength = 160 // samples per 20 ms AMR-NB frame
)

var (
	ErrNoFrames     = errors.New("3gp: no frames")
	ErrNoVideoTrack = errors.New("3gp: no video track")
)

// compatibleBrands are the brands a 3GP file is accepted with.
var compatibleBrands = []string{"3gp4", "3gp5", "3gp6", "3g2a", "isom"}

// DefaultOptions are the 3GPP defaults: 15 fps at 600 ticks per second,
// quality 75, frames fitted into QCIF.
func DefaultOptions() config.Options {
	opts := config.Default()
	opts.Brand = Brand
	opts.MaxWidth, opts.MaxHeight = QCIFWidth, QCIFHeight
	return opts
}

// File is a decoded 3GP file. Frames is only filled for motion-JPEG video;
// other codecs are exposed through Samples.
type File struct {
	Model   *mp4.FileModel
	Video   *mp4.Track
	Samples []mp4.SampleLocation
	Frames  []image.Image
	Audio   *mp4.Track
}

func (f *File) String() string {
	return fmt.Sprintf("3GP frames=%d samples=%d", len(f.Frames), len(f.Samples))
}

// IsCompatible reports whether the file type carries a 3GPP brand.
func IsCompatible(ftyp *mp4io.FileType) bool {
	if ftyp == nil {
		return false
	}
	for _, b := range compatibleBrands {
		if ftyp.Compatible(b) {
			return true
		}
	}
	return false
}

// Decode parses buf, resolves the samples of its first video track and,
// for motion-JPEG, decodes them into frames fitted to the option bounds.
func Decode(ctx context.Context, buf []byte, opts config.Options) (*File, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	model, err := mp4.ParseFile(buf)
	if err != nil {
		return nil, fmt.Errorf("3gp: %w", err)
	}
	if !IsCompatible(model.FileType) {
		logger.Warningf(model, "file type is not 3GPP, decoding anyway")
	}

	f := &File{Model: model}
	if tracks := model.VideoTracks(); len(tracks) > 0 {
		f.Video = tracks[0]
	}
	if tracks := model.AudioTracks(); len(tracks) > 0 {
		f.Audio = tracks[0]
	}
	if f.Video == nil {
		return nil, ErrNoVideoTrack
	}
	if f.Samples, err = f.Video.Samples(); err != nil {
		return nil, fmt.Errorf("3gp: video track %d: %w", f.Video.ID, err)
	}
	if len(f.Samples) == 0 {
		return nil, ErrNoFrames
	}

	if f.Video.Codec() == boxmedia.MJPEG {
		dec := mjpeg.NewDecoder(opts.MaxWidth, opts.MaxHeight)
		if f.Frames, err = mp4.DecodeFrames(ctx, buf, f.Samples, dec, opts.Workers); err != nil {
			return nil, fmt.Errorf("3gp: %w", err)
		}
	}
	logger.Debugf(f, "video track %d (%v) with %d samples", f.Video.ID, f.Video.Codec(), len(f.Samples))
	return f, nil
}

// Encode writes frames as motion-JPEG, fitted to the option bounds.
func Encode(frames []image.Image, opts config.Options) ([]byte, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	enc := mjpeg.NewEncoder(opts.Quality, opts.MaxWidth, opts.MaxHeight)
	samples := make([][]byte, len(frames))
	for i, frame := range frames {
		s, err := enc.Encode(frame)
		if err != nil {
			return nil, fmt.Errorf("3gp: frame %d: %w", i, err)
		}
		samples[i] = s
	}
	w, h, err := mjpeg.Config(samples[0])
	if err != nil {
		return nil, fmt.Errorf("3gp: %w", err)
	}
	return EncodeSamples(Video{Format: "jpeg", Width: w, Height: h, Samples: samples}, nil, opts)
}

// Video is pre-encoded video: "jpeg", "mjpa" or "s263".
type Video struct {
	Format  string
	Width   int
	Height  int
	Samples [][]byte
}

// AMR is pre-encoded AMR-NB audio, one 20 ms frame per sample.
type AMR struct {
	Samples [][]byte
}

// EncodeSamples writes pre-encoded samples as a 3GP file. amr may be nil.
func EncodeSamples(video Video, amr *AMR, opts config.Options) ([]byte, error) {
	if len(video.Samples) == 0 {
		return nil, ErrNoFrames
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	switch video.Format {
	case "jpeg", "mjpa", "s263":
	default:
		return nil, fmt.Errorf("3gp: unsupported sample format %q", video.Format)
	}
	if video.Width <= 0 || video.Height <= 0 || video.Width > 0xFFFF || video.Height > 0xFFFF {
		return nil, fmt.Errorf("3gp: invalid frame size %dx%d", video.Width, video.Height)
	}

	brand := opts.Brand
	if brand == "" {
		brand = Brand
	}
	mux := mp4.NewMuxer(nil, mp4io.NewFileType(brand, "isom", brand))
	mux.SetMovieTimeScale(opts.Timescale)

	entry := &mp4io.SampleEntry{
		Format:     mp4io.StringToTag(video.Format),
		DataRefIdx: 1,
		Visual:     mp4io.NewVisualSampleEntry(uint16(video.Width), uint16(video.Height)), //nolint:gosec
	}
	if video.Format == "s263" {
		entry.Extensions = []*mp4io.Box{h263Config()}
	}
	vid, err := mux.AddTrack(mp4.TrackSpec{
		Kind:        boxmedia.VideoTrack,
		Entry:       entry,
		TimeScale:   opts.Timescale,
		SampleDelta: mp4.SampleDelta(opts.Timescale, opts.FrameRate),
		Width:       float64(video.Width),
		Height:      float64(video.Height),
	})
	if err != nil {
		return nil, fmt.Errorf("3gp: %w", err)
	}
	for _, s := range video.Samples {
		if err = mux.WriteSample(vid, s); err != nil {
			return nil, fmt.Errorf("3gp: %w", err)
		}
	}

	if amr != nil && len(amr.Samples) > 0 {
		aid, err := mux.AddTrack(mp4.TrackSpec{
			Kind: boxmedia.AudioTrack,
			Entry: &mp4io.SampleEntry{
				Format:     mp4io.StringToTag("samr"),
				DataRefIdx: 1,
				Audio:      &mp4io.AudioSampleEntry{ChannelCount: 1, SampleSize: 16, SampleRate: amrSampleRate}, //nolint:mnd
				Extensions: []*mp4io.Box{amrConfig()},
			},
			TimeScale:   amrSampleRate,
			SampleDelta: amrFrameLength,
		})
		if err != nil {
			return nil, fmt.Errorf("3gp: %w", err)
		}
		for _, s := range amr.Samples {
			if err = mux.WriteSample(aid, s); err != nil {
				return nil, fmt.Errorf("3gp: %w", err)
			}
		}
	}

	out, err := mux.Bytes()
	if err != nil {
		return nil, fmt.Errorf("3gp: %w", err)
	}
	logger.Debugf(mux, "encoded %d %s samples into %d bytes", len(video.Samples), video.Format, len(out))
	return out, nil
}

// h263Config is the 'd263' decoder configuration: vendor, decoder version,
// level 10, profile 0.
func h263Config() *mp4io.Box {
	return &mp4io.Box{Type: mp4io.StringToTag("d263"), Payload: []byte{'b', 'x', 'm', 'd', 0, 10, 0}}
}

// amrConfig is the 'damr' decoder configuration: vendor, decoder version,
// all AMR-NB modes, no mode change restriction, one frame per sample.
func amrConfig() *mp4io.Box {
	return &mp4io.Box{Type: mp4io.StringToTag("damr"), Payload: []byte{'b', 'x', 'm', 'd', 0, 0x81, 0xff, 0, 1}}
}

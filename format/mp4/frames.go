package mp4

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/ugparu/boxmedia"
	"github.com/ugparu/boxmedia/utils/logger"
)

// Slice returns the bytes of loc inside buf, or false when they run past
// its end. The slice aliases buf.
func Slice(buf []byte, loc SampleLocation) ([]byte, bool) {
	end := loc.Offset + uint64(loc.Size)
	if end < loc.Offset || end > uint64(len(buf)) {
		return nil, false
	}
	return buf[loc.Offset:end:end], true
}

// DecodeFrames decodes the samples at locs with up to workers goroutines and
// returns the frames in sample order. Samples past the end of buf are
// dropped along with everything after them.
func DecodeFrames(ctx context.Context, buf []byte, locs []SampleLocation, dec boxmedia.FrameDecoder, workers int) ([]image.Image, error) {
	samples := make([][]byte, 0, len(locs))
	for i, loc := range locs {
		s, ok := Slice(buf, loc)
		if !ok {
			logger.Debugf(dec, "sample %d at %d+%d runs past %d bytes, dropping %d samples",
				i, loc.Offset, loc.Size, len(buf), len(locs)-i)
			break
		}
		samples = append(samples, s)
	}

	frames := make([]image.Image, len(samples))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, s := range samples {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := dec.Decode(s)
			if err != nil {
				return &FrameError{Index: i, Err: err}
			}
			frames[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

// FrameError reports the sample a payload decoder failed on.
type FrameError struct {
	Index int
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d: %v", e.Index, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

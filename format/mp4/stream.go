package mp4

import (
	"time"

	"github.com/ugparu/boxmedia/utils"
	"github.com/ugparu/boxmedia/utils/logger"
)

// stream is the read cursor over one track's resolved samples.
type stream struct {
	track *Track
	locs  []SampleLocation
	next  int
}

func (s *stream) String() string {
	return s.track.String()
}

func (s *stream) done() bool {
	return s.next >= len(s.locs)
}

// dts is the decode time of the next sample.
func (s *stream) dts() time.Duration {
	return tsToTime(s.locs[s.next].DecodeTime, s.track.TimeScale)
}

// readPacket slices the next sample out of buf. A sample reaching past the
// end of buf ends the stream.
func (s *stream) readPacket(buf []byte) *Packet {
	loc := s.locs[s.next]
	end := loc.Offset + uint64(loc.Size)
	if end > uint64(len(buf)) {
		logger.Debugf(s, "%v", utils.TruncationWarning{
			Box:    "mdat",
			Offset: int(min(loc.Offset, uint64(len(buf)))),
			Need:   int(loc.Size),
			Have:   max(0, len(buf)-int(min(loc.Offset, uint64(len(buf))))),
		})
		s.next = len(s.locs)
		return nil
	}

	pkt := &Packet{
		TrackID:           s.track.ID,
		Index:             s.next,
		Codec:             s.track.Codec(),
		Time:              tsToTime(loc.DecodeTime, s.track.TimeScale),
		Duration:          tsToTime(uint64(loc.Duration), s.track.TimeScale),
		CompositionOffset: time.Duration(loc.CompositionOffset) * time.Second / time.Duration(max(s.track.TimeScale, 1)),
		IsKey:             loc.IsSync,
		Data:              buf[loc.Offset:end:end],
		Location:          loc,
	}
	s.next++
	return pkt
}

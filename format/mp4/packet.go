package mp4

import (
	"fmt"
	"time"

	"github.com/ugparu/boxmedia"
)

// Packet is one sample travelling in or out of a file.
type Packet struct {
	TrackID  uint32
	Index    int // 0-based sample number within the track
	Codec    boxmedia.CodecType
	Time     time.Duration // decode time
	Duration time.Duration
	// CompositionOffset is presentation time minus decode time.
	CompositionOffset time.Duration
	IsKey             bool
	Data              []byte
	Location          SampleLocation
}

func (pkt *Packet) String() string {
	return fmt.Sprintf("PACKET track=%d index=%d time=%v size=%d key=%v",
		pkt.TrackID, pkt.Index, pkt.Time, len(pkt.Data), pkt.IsKey)
}

// timeToTS converts a duration to timescale ticks.
func timeToTS(tm time.Duration, timeScale uint32) uint64 {
	return uint64(tm * time.Duration(timeScale) / time.Second)
}

// tsToTime converts timescale ticks to a duration.
func tsToTime(ts uint64, timeScale uint32) time.Duration {
	if timeScale == 0 {
		return 0
	}
	return time.Duration(ts) * time.Second / time.Duration(timeScale)
}

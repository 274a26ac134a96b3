package mp4

import (
	"errors"
	"io"

	"github.com/ugparu/boxmedia"
)

// Demuxer reads packets from a complete file held in memory, interleaving
// tracks by decode time.
type Demuxer struct {
	buf     []byte
	file    *FileModel
	streams []*stream
}

func NewDemuxer(buf []byte) *Demuxer {
	return &Demuxer{buf: buf}
}

func (dmx *Demuxer) String() string {
	return "MP4_DEMUXER"
}

// Demux parses the file on first use and returns its model.
func (dmx *Demuxer) Demux() (*FileModel, error) {
	if err := dmx.probe(); err != nil {
		return nil, err
	}
	return dmx.file, nil
}

// ReadPacket returns the sample with the earliest decode time across all
// tracks, or io.EOF once every track is exhausted. Data aliases the input
// buffer.
func (dmx *Demuxer) ReadPacket() (*Packet, error) {
	if err := dmx.probe(); err != nil {
		return nil, err
	}
	for {
		var chosen *stream
		for _, s := range dmx.streams {
			if s.done() {
				continue
			}
			if chosen == nil || s.dts() < chosen.dts() {
				chosen = s
			}
		}
		if chosen == nil {
			return nil, io.EOF
		}
		if pkt := chosen.readPacket(dmx.buf); pkt != nil {
			return pkt, nil
		}
	}
}

// TrackPackets returns every packet of one track in decode order.
func (dmx *Demuxer) TrackPackets(id uint32) ([]*Packet, error) {
	if err := dmx.probe(); err != nil {
		return nil, err
	}
	for _, s := range dmx.streams {
		if s.track.ID != id {
			continue
		}
		cursor := &stream{track: s.track, locs: s.locs}
		pkts := make([]*Packet, 0, len(s.locs))
		for !cursor.done() {
			if pkt := cursor.readPacket(dmx.buf); pkt != nil {
				pkts = append(pkts, pkt)
			}
		}
		return pkts, nil
	}
	return nil, errors.New("mp4: no track with the requested id")
}

// FirstTrack returns the first track of the given kind, or nil.
func (dmx *Demuxer) FirstTrack(kind boxmedia.TrackKind) *Track {
	if dmx.file == nil {
		return nil
	}
	for _, t := range dmx.file.Tracks {
		if t.Kind == kind {
			return t
		}
	}
	return nil
}

func (dmx *Demuxer) probe() error {
	if dmx.file != nil {
		return nil
	}
	file, err := ParseFile(dmx.buf)
	if err != nil {
		return err
	}
	streams := make([]*stream, 0, len(file.Tracks))
	for _, t := range file.Tracks {
		locs, err := ResolveSampleLocations(t)
		if err != nil {
			return err
		}
		streams = append(streams, &stream{track: t, locs: locs})
	}
	dmx.file, dmx.streams = file, streams
	return nil
}

// Package boxmedia holds the vocabulary shared by the ISO base media file
// packages: codec identifiers, track kinds and the payload codec interfaces
// the container wrappers are built against.
package boxmedia

import (
	"image"
)

// TrackKind classifies a track by its handler type.
type TrackKind uint8

const (
	OtherTrack TrackKind = iota // Handler other than video or sound.
	VideoTrack                  // 'vide' handler.
	AudioTrack                  // 'soun' handler.
)

func (k TrackKind) String() string {
	switch k {
	case VideoTrack:
		return "VIDEO"
	case AudioTrack:
		return "AUDIO"
	}
	return "OTHER"
}

// CodecParameters ties a codec to the track it is stored in.
type CodecParameters interface {
	Type() CodecType // Returns the codec type.
	TrackID() uint32 // Returns the id of the track, 0 when not yet written.
	Format() string  // Returns the sample entry fourcc.
	Tag() string     // Returns a short description of the stream.
}

// VideoCodecParameters extends CodecParameters with video-specific parameters.
type VideoCodecParameters interface {
	CodecParameters
	Width() uint  // Returns the width of the video.
	Height() uint // Returns the height of the video.
	FPS() uint    // Returns the frames per second of the video.
}

// AudioCodecParameters extends CodecParameters with audio-specific parameters.
type AudioCodecParameters interface {
	CodecParameters
	SampleRate() uint64 // Returns the sample rate of the audio.
	Channels() uint8    // Returns the number of audio channels.
}

// FrameDecoder turns one video sample payload into an image.
type FrameDecoder interface {
	Decode(sample []byte) (image.Image, error)
}

// FrameEncoder turns an image into one video sample payload.
type FrameEncoder interface {
	Encode(img image.Image) ([]byte, error)
}

// AudioDecoder turns one audio sample payload into interleaved signed 16-bit PCM.
type AudioDecoder interface {
	Decode(sample []byte) ([]int16, error)
}

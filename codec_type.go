package boxmedia

// CodecType represents the type of a codec.
type CodecType uint32

// avCodecTypeMagic is a magic number used to create unique codec types.
const avCodecTypeMagic = 233333

// makeAudioCodecType creates an audio CodecType based on the provided base.
func makeAudioCodecType(base uint32) (c CodecType) {
	c = CodecType(base)<<codecTypeOtherBits | CodecType(codecTypeAudioBit)
	return
}

// makeVideoCodecType creates a video CodecType based on the provided base.
func makeVideoCodecType(base uint32) (c CodecType) {
	c = CodecType(base) << codecTypeOtherBits
	return
}

// variables representing specific codec types.
var (
	Unknown  = CodecType(0)
	H264     = makeVideoCodecType(avCodecTypeMagic + 1) //nolint:mnd
	H265     = makeVideoCodecType(avCodecTypeMagic + 2) //nolint:mnd
	JPEG     = makeVideoCodecType(avCodecTypeMagic + 3) //nolint:mnd
	H263     = makeVideoCodecType(avCodecTypeMagic + 4) //nolint:mnd
	MP4V     = makeVideoCodecType(avCodecTypeMagic + 5) //nolint:mnd
	MJPEG    = makeVideoCodecType(avCodecTypeMagic + 7) //nolint:mnd
	AAC      = makeAudioCodecType(avCodecTypeMagic + 1) //nolint:mnd
	PCMMulaw = makeAudioCodecType(avCodecTypeMagic + 2) //nolint:mnd
	PCMAlaw  = makeAudioCodecType(avCodecTypeMagic + 3) //nolint:mnd
	AMR      = makeAudioCodecType(avCodecTypeMagic + 4) //nolint:mnd
	AMRWB    = makeAudioCodecType(avCodecTypeMagic + 5) //nolint:mnd
	PCM      = makeAudioCodecType(avCodecTypeMagic + 6) //nolint:mnd
	PCMLE    = makeAudioCodecType(avCodecTypeMagic + 8) //nolint:mnd
	PCMU8    = makeAudioCodecType(avCodecTypeMagic + 9) //nolint:mnd
)

// Bitwise flags for codec types.
const (
	codecTypeAudioBit  = 0x1
	codecTypeOtherBits = 1
)

// sampleEntryCodecs maps sample description format tags to codec types.
var sampleEntryCodecs = map[string]CodecType{
	"avc1": H264,
	"avc3": H264,
	"hvc1": H265,
	"hev1": H265,
	"jpeg": MJPEG,
	"mjpa": MJPEG,
	"mjpb": MJPEG,
	"mjpg": MJPEG,
	"s263": H263,
	"h263": H263,
	"mp4v": MP4V,
	"mp4a": AAC,
	"samr": AMR,
	"sawb": AMRWB,
	"ulaw": PCMMulaw,
	"alaw": PCMAlaw,
	"twos": PCM,
	"sowt": PCMLE,
	"lpcm": PCM,
	"raw ": PCMU8,
}

// CodecFromFormat returns the codec identified by a sample entry format tag,
// or Unknown.
func CodecFromFormat(format string) CodecType {
	return sampleEntryCodecs[format]
}

// String returns the human-readable string representation of a CodecType.
func (ct CodecType) String() string {
	switch ct {
	case H264:
		return "H264"
	case H265:
		return "H265"
	case JPEG:
		return "JPEG"
	case H263:
		return "H263"
	case MP4V:
		return "MP4V"
	case MJPEG:
		return "MJPEG"
	case AAC:
		return "AAC"
	case PCMMulaw:
		return "PCM_MULAW"
	case PCMAlaw:
		return "PCM_ALAW"
	case AMR:
		return "AMR"
	case AMRWB:
		return "AMR_WB"
	case PCM:
		return "PCM"
	case PCMLE:
		return "PCM_LE"
	case PCMU8:
		return "PCM_U8"
	}
	return "UNKNOWN"
}

// IsAudio returns true if the CodecType represents an audio codec.
func (ct CodecType) IsAudio() bool {
	return ct&codecTypeAudioBit != 0
}

// IsVideo returns true if the CodecType represents a video codec.
func (ct CodecType) IsVideo() bool {
	return ct != Unknown && ct&codecTypeAudioBit == 0
}

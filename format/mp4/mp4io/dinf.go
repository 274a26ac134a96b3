package mp4io

import "github.com/ugparu/boxmedia/utils/bits/pio"

// DataReferSelfContained marks a 'url ' entry whose media lives in the same file.
const DataReferSelfContained = 0x000001

// DataInfo builds 'dinf' with a single self-contained 'url ' reference,
// the only form the encoders emit.
func DataInfo() Serialized {
	url := Leaf(URL, fullBoxPrefix(0, DataReferSelfContained))
	count := make([]byte, 4)
	pio.PutU32BE(count, 1)
	dref := FullContainer(DREF, append(fullBoxPrefix(0, 0), count...), url)
	return Container(DINF, dref)
}

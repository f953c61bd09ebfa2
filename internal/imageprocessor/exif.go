package imageprocessor

import (
	"bytes"
	"encoding/binary"
)

var exifHeader = []byte("Exif\x00\x00")

// ExtractEXIF returns the raw APP1 Exif segment (marker included) from a
// JPEG stream, or nil when the stream carries none.
func ExtractEXIF(jpegData []byte) []byte {
	segments := scanSegments(jpegData)
	for _, seg := range segments {
		if seg.marker != 0xE1 {
			continue
		}
		payload := jpegData[seg.start+4 : seg.end]
		if bytes.HasPrefix(payload, exifHeader) {
			out := make([]byte, seg.end-seg.start)
			copy(out, jpegData[seg.start:seg.end])
			return out
		}
	}
	return nil
}

// SpliceEXIF inserts an APP1 Exif segment right after the SOI marker of an
// encoded JPEG. Input without a valid SOI is returned unchanged.
func SpliceEXIF(jpegData, exifSegment []byte) []byte {
	if len(jpegData) < 2 || jpegData[0] != 0xFF || jpegData[1] != 0xD8 {
		return jpegData
	}
	out := make([]byte, 0, len(jpegData)+len(exifSegment))
	out = append(out, jpegData[:2]...)
	out = append(out, exifSegment...)
	out = append(out, jpegData[2:]...)
	return out
}

type segment struct {
	marker byte
	start  int // offset of the 0xFF byte
	end    int // offset past the segment payload
}

// scanSegments walks JPEG marker segments up to SOS.
func scanSegments(data []byte) []segment {
	var segs []segment
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return segs
	}
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			break
		}
		marker := data[i+1]
		// SOS: entropy-coded data follows, stop scanning.
		if marker == 0xDA {
			break
		}
		// Standalone markers carry no length.
		if marker == 0xD8 || marker == 0xD9 || (marker >= 0xD0 && marker <= 0xD7) {
			i += 2
			continue
		}
		length := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		end := i + 2 + length
		if length < 2 || end > len(data) {
			break
		}
		segs = append(segs, segment{marker: marker, start: i, end: end})
		i = end
	}
	return segs
}

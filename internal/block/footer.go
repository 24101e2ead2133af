package block

import (
	"errors"

	"github.com/dialtr/lsmkv/internal/encoding"
)

// Magic identifies a table file produced by this format.
const Magic uint64 = 0xDB4775248B80FB57

// Version is the only supported footer version.
const Version uint32 = 1

// FooterSize is the fixed on-disk size of the footer: 4 fixed64 fields
// (32 bytes) + version:u32 + pad:u32 (8 bytes) + magic:u64 (8 bytes).
const FooterSize = 48

// ErrBadFooter is returned when a footer fails magic or version validation.
var ErrBadFooter = errors.New("block: bad footer")

// Footer is the fixed 48-byte trailer of a table file: index and filter
// block handles, a version tag, and the format magic.
type Footer struct {
	IndexOffset  uint64
	IndexSize    uint64
	FilterOffset uint64
	FilterSize   uint64
	Version      uint32
}

// EncodeTo serializes the footer in little-endian order: index_offset |
// index_size | filter_offset | filter_size | version:u32 | pad:u32 |
// magic:u64.
func (f Footer) EncodeTo() []byte {
	buf := make([]byte, 0, FooterSize)
	buf = encoding.PutFixed64(buf, f.IndexOffset)
	buf = encoding.PutFixed64(buf, f.IndexSize)
	buf = encoding.PutFixed64(buf, f.FilterOffset)
	buf = encoding.PutFixed64(buf, f.FilterSize)
	v := f.Version
	if v == 0 {
		v = Version
	}
	buf = encoding.PutFixed32(buf, v)
	buf = encoding.PutFixed32(buf, 0) // pad
	buf = encoding.PutFixed64(buf, Magic)
	return buf
}

// DecodeFooter validates and parses a 48-byte footer.
func DecodeFooter(data []byte) (Footer, error) {
	if len(data) != FooterSize {
		return Footer{}, ErrBadFooter
	}
	var f Footer
	f.IndexOffset, _ = encoding.GetFixed64(data[0:8])
	f.IndexSize, _ = encoding.GetFixed64(data[8:16])
	f.FilterOffset, _ = encoding.GetFixed64(data[16:24])
	f.FilterSize, _ = encoding.GetFixed64(data[24:32])
	f.Version, _ = encoding.GetFixed32(data[32:36])
	magic, _ := encoding.GetFixed64(data[40:48])
	if magic != Magic || f.Version != Version {
		return Footer{}, ErrBadFooter
	}
	return f, nil
}

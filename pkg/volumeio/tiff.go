package volumeio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"

	"golang.org/x/image/tiff"
)

const (
	leHeader = "II\x2A\x00"
	beHeader = "MM\x00\x2A"

	tagImageWidth       = 256
	tagImageLength      = 257
	tagBitsPerSample    = 258
	tagCompression      = 259
	tagPhotometric      = 262
	tagImageDescription = 270
	tagStripOffsets     = 273
	tagSamplesPerPixel  = 277
	tagRowsPerStrip     = 278
	tagStripByteCounts  = 279

	dtASCII = 2
	dtShort = 3
	dtLong  = 4

	ifdEntryLen = 12
)

// tiffFile is an in-memory TIFF with the offsets of all of its pages
type tiffFile struct {
	data        []byte
	order       binary.ByteOrder
	pages       []uint32
	description string
}

func parseTIFF(data []byte) (*tiffFile, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("tiff: file too short")
	}
	t := &tiffFile{data: data}
	switch string(data[:4]) {
	case leHeader:
		t.order = binary.LittleEndian
	case beHeader:
		t.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("tiff: invalid header (BigTIFF is not supported)")
	}

	seen := make(map[uint32]bool)
	off := t.order.Uint32(data[4:8])
	for off != 0 {
		if seen[off] {
			return nil, fmt.Errorf("tiff: IFD loop at offset %d", off)
		}
		seen[off] = true
		if int(off)+2 > len(data) {
			return nil, fmt.Errorf("tiff: IFD offset %d out of range", off)
		}
		n := int(t.order.Uint16(data[off:]))
		end := int(off) + 2 + n*ifdEntryLen
		if end+4 > len(data) {
			return nil, fmt.Errorf("tiff: truncated IFD at offset %d", off)
		}
		if len(t.pages) == 0 {
			t.description = t.asciiTag(int(off)+2, n, tagImageDescription)
		}
		t.pages = append(t.pages, off)
		off = t.order.Uint32(data[end:])
	}
	if len(t.pages) == 0 {
		return nil, fmt.Errorf("tiff: no pages")
	}
	return t, nil
}

// asciiTag returns the value of an ASCII entry of the IFD whose entries
// start at base, or "" if absent
func (t *tiffFile) asciiTag(base, n int, tag uint16) string {
	for i := 0; i < n; i++ {
		e := t.data[base+i*ifdEntryLen:]
		if t.order.Uint16(e[0:2]) != tag || t.order.Uint16(e[2:4]) != dtASCII {
			continue
		}
		count := int(t.order.Uint32(e[4:8]))
		var raw []byte
		if count <= 4 {
			raw = e[8 : 8+count]
		} else {
			start := int(t.order.Uint32(e[8:12]))
			if start+count > len(t.data) {
				return ""
			}
			raw = t.data[start : start+count]
		}
		return strings.TrimRight(string(raw), "\x00")
	}
	return ""
}

// decodePage decodes page i
func (t *tiffFile) decodePage(i int) (image.Image, error) {
	img, err := tiff.Decode(&pageReader{file: t, ifd: t.pages[i]})
	if err != nil {
		return nil, fmt.Errorf("tiff: page %d: %w", i, err)
	}
	return img, nil
}

// pageReader presents the file with its first-IFD pointer redirected to
// one page, so a single-image decoder reads that page
type pageReader struct {
	file *tiffFile
	ifd  uint32
	pos  int64
}

func (r *pageReader) ReadAt(p []byte, off int64) (int, error) {
	data := r.file.data
	if off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[off:])

	var hdr [4]byte
	r.file.order.PutUint32(hdr[:], r.ifd)
	for i := 4; i < 8; i++ {
		if j := int64(i) - off; j >= 0 && j < int64(n) {
			p[j] = hdr[i-4]
		}
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (r *pageReader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.pos)
	r.pos += int64(n)
	return n, err
}

// hyperstack holds the axis extents found in an ImageJ description
type hyperstack struct {
	images   int
	channels int
	slices   int
	frames   int
}

func parseImageJ(desc string) (hyperstack, bool) {
	if !strings.HasPrefix(desc, "ImageJ=") {
		return hyperstack{}, false
	}
	h := hyperstack{channels: 1, slices: 1, frames: 1}
	for _, line := range strings.Split(desc, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			continue
		}
		switch key {
		case "images":
			h.images = n
		case "channels":
			h.channels = n
		case "slices":
			h.slices = n
		case "frames":
			h.frames = n
		}
	}
	return h, true
}

func imageJDescription(slices int) string {
	var b strings.Builder
	b.WriteString("ImageJ=1.11a\n")
	fmt.Fprintf(&b, "images=%d\n", slices)
	if slices > 1 {
		fmt.Fprintf(&b, "slices=%d\n", slices)
	}
	b.WriteString("hyperstack=true\nmode=grayscale\n")
	return b.String()
}

// writeGray8Pages writes uncompressed 8-bit grayscale pages of the same
// size, one strip per page, with description attached to the first page
func writeGray8Pages(w io.Writer, pages [][]uint8, width, height int, description string) error {
	order := binary.LittleEndian
	desc := append([]byte(description), 0)
	pageLen := width * height

	const nEntries = 10
	ifdLen := 2 + nEntries*ifdEntryLen + 4

	var buf bytes.Buffer
	buf.WriteString(leHeader)
	put32 := func(v uint32) { binary.Write(&buf, order, v) }
	put16 := func(v uint16) { binary.Write(&buf, order, v) }

	// layout: header, description, then per page: IFD followed by pixels
	descOff := uint32(8)
	first := descOff + uint32(len(desc))
	if first%2 == 1 {
		first++
	}
	put32(first)
	buf.Write(desc)
	for uint32(buf.Len()) < first {
		buf.WriteByte(0)
	}

	for i, page := range pages {
		if len(page) != pageLen {
			return fmt.Errorf("tiff: page %d has %d bytes, want %d", i, len(page), pageLen)
		}
		ifdOff := uint32(buf.Len())
		pixOff := ifdOff + uint32(ifdLen)
		next := uint32(0)
		if i < len(pages)-1 {
			next = pixOff + uint32(pageLen)
			if next%2 == 1 {
				next++
			}
		}

		entry := func(tag, typ uint16, count, value uint32) {
			put16(tag)
			put16(typ)
			put32(count)
			if typ == dtShort && count == 1 {
				put16(uint16(value))
				put16(0)
				return
			}
			put32(value)
		}

		put16(nEntries)
		entry(tagImageWidth, dtLong, 1, uint32(width))
		entry(tagImageLength, dtLong, 1, uint32(height))
		entry(tagBitsPerSample, dtShort, 1, 8)
		entry(tagCompression, dtShort, 1, 1)
		entry(tagPhotometric, dtShort, 1, 1)
		if i == 0 {
			entry(tagImageDescription, dtASCII, uint32(len(desc)), descOff)
		} else {
			entry(tagImageDescription, dtASCII, 1, 0)
		}
		entry(tagStripOffsets, dtLong, 1, pixOff)
		entry(tagSamplesPerPixel, dtShort, 1, 1)
		entry(tagRowsPerStrip, dtLong, 1, uint32(height))
		entry(tagStripByteCounts, dtLong, 1, uint32(pageLen))
		put32(next)

		buf.Write(page)
		if next != 0 {
			for uint32(buf.Len()) < next {
				buf.WriteByte(0)
			}
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

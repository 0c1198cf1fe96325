package ingest

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"unicode/utf16"

	"github.com/extrame/ole2"
)

// BIFF record identifiers used by the cell scan
const (
	recFormula     = 0x0006
	recEOF         = 0x000A
	recFormatBIFF5 = 0x001E
	recDateMode    = 0x0022
	recBoundSheet  = 0x0085
	recMulRK       = 0x00BD
	recMulBlank    = 0x00BE
	recRString     = 0x00D6
	recXF          = 0x00E0
	recLabelSST    = 0x00FD
	recBlank       = 0x0201
	recNumber      = 0x0203
	recLabel       = 0x0204
	recBoolErr     = 0x0205
	recString      = 0x0207
	recRow         = 0x0208
	recRK          = 0x027E
	recFormat      = 0x041E
	recBOF         = 0x0809

	biff8Version = 0x0600
)

var (
	errNoWorkbookStream = errors.New("no Workbook stream in the compound file")
	errNotBIFF          = errors.New("workbook stream does not start with a BOF record")
	errNoWorksheet      = errors.New("workbook has no worksheet")
	errTruncatedStream  = errors.New("truncated record stream")
	errCorruptWorkbook  = errors.New("corrupt record stream")
)

type cellPos struct {
	row, col int
}

type biffRecord struct {
	id   uint16
	data []byte
}

// nextRecord returns the record starting at off and the offset following it
func nextRecord(stream []byte, off int) (biffRecord, int, bool) {
	if off < 0 || off+4 > len(stream) {
		return biffRecord{}, off, false
	}
	id := binary.LittleEndian.Uint16(stream[off:])
	end := off + 4 + int(binary.LittleEndian.Uint16(stream[off+2:]))
	if end > len(stream) {
		return biffRecord{}, off, false
	}
	return biffRecord{id: id, data: stream[off+4 : end]}, end, true
}

// readWorkbookStream extracts the BIFF record stream from an OLE2 compound file
func readWorkbookStream(r io.ReadSeeker) ([]byte, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	doc, err := ole2.Open(r, "utf-8")
	if err != nil {
		return nil, err
	}
	dir, err := doc.ListDir()
	if err != nil {
		return nil, err
	}

	var book, root *ole2.File
	for _, f := range dir {
		switch f.Name() {
		case "Workbook", "Book":
			book = f
		case "Root Entry":
			root = f
		}
	}
	if book == nil || root == nil {
		return nil, errNoWorkbookStream
	}
	if int64(book.Size) > size {
		return nil, errTruncatedStream
	}

	stream := make([]byte, book.Size)
	if _, err := io.ReadFull(doc.OpenFile(book, root), stream); err != nil {
		return nil, errTruncatedStream
	}
	return stream, nil
}

// biffGlobals holds the workbook-wide records needed to render cells
type biffGlobals struct {
	biff8     bool
	date1904  bool
	xfFormats []uint16
	formats   map[uint16]string
	// stream offset of the first worksheet's BOF record, -1 when absent
	firstSheet int
}

func scanGlobals(stream []byte) (*biffGlobals, error) {
	rec, off, ok := nextRecord(stream, 0)
	if !ok || rec.id != recBOF || len(rec.data) < 2 {
		return nil, errNotBIFF
	}
	g := &biffGlobals{
		biff8:      binary.LittleEndian.Uint16(rec.data) == biff8Version,
		formats:    make(map[uint16]string),
		firstSheet: -1,
	}

	for {
		rec, off, ok = nextRecord(stream, off)
		if !ok {
			return nil, errTruncatedStream
		}
		switch rec.id {
		case recEOF:
			return g, nil
		case recDateMode:
			g.date1904 = len(rec.data) >= 2 && binary.LittleEndian.Uint16(rec.data) == 1
		case recXF:
			var format uint16
			if len(rec.data) >= 4 {
				format = binary.LittleEndian.Uint16(rec.data[2:])
			}
			g.xfFormats = append(g.xfFormats, format)
		case recFormat, recFormatBIFF5:
			if len(rec.data) >= 2 {
				g.formats[binary.LittleEndian.Uint16(rec.data)] = g.formatCode(rec.data[2:])
			}
		case recBoundSheet:
			if g.firstSheet < 0 && len(rec.data) >= 4 {
				g.firstSheet = int(binary.LittleEndian.Uint32(rec.data))
			}
		}
	}
}

func (g *biffGlobals) formatCode(data []byte) string {
	if g.biff8 {
		return unicodeString(data)
	}
	if len(data) < 1 {
		return ""
	}
	return byteString(data[1:], int(data[0]))
}

// stringValue decodes the cached result of a string formula
func (g *biffGlobals) stringValue(data []byte) string {
	if g.biff8 {
		return unicodeString(data)
	}
	if len(data) < 2 {
		return ""
	}
	return byteString(data[2:], int(binary.LittleEndian.Uint16(data)))
}

// isDateXF reports whether the number format behind an XF index renders dates
func (g *biffGlobals) isDateXF(xf uint16) bool {
	if int(xf) >= len(g.xfFormats) {
		return false
	}
	id := g.xfFormats[xf]
	if code, ok := g.formats[id]; ok {
		return isDateFormatCode(code)
	}
	return isBuiltInDateFormat(int(id))
}

// biffSheet is what the record scan learns about one worksheet. values holds
// rendered cells; sst marks cells whose text lives in the shared string table.
type biffSheet struct {
	widths map[int]int
	values map[cellPos]string
	sst    map[cellPos]bool
	maxRow int
}

func (s *biffSheet) touch(row, width int) {
	if w, ok := s.widths[row]; !ok || width > w {
		s.widths[row] = width
	}
	if row > s.maxRow {
		s.maxRow = row
	}
}

func (s *biffSheet) set(p cellPos, text string) {
	s.values[p] = text
	s.touch(p.row, p.col+1)
}

func scanSheet(stream []byte, g *biffGlobals) (*biffSheet, error) {
	if g.firstSheet < 0 {
		return nil, errNoWorksheet
	}
	rec, off, ok := nextRecord(stream, g.firstSheet)
	if !ok || rec.id != recBOF {
		return nil, errTruncatedStream
	}

	s := &biffSheet{
		widths: make(map[int]int),
		values: make(map[cellPos]string),
		sst:    make(map[cellPos]bool),
	}
	// a string formula's value arrives in the STRING record that follows it
	var pending *cellPos

	for {
		rec, off, ok = nextRecord(stream, off)
		if !ok {
			return nil, errTruncatedStream
		}
		data := rec.data

		switch rec.id {
		case recEOF:
			return s, nil
		case recBOF:
			// embedded chart or macro substream
			if off, ok = skipSubstream(stream, off); !ok {
				return nil, errTruncatedStream
			}
		case recRow:
			if len(data) >= 2 {
				s.touch(int(binary.LittleEndian.Uint16(data)), 0)
			}
		case recLabelSST:
			if p, ok := position(data); ok {
				s.sst[p] = true
				s.touch(p.row, p.col+1)
			}
		case recLabel, recRString:
			if p, ok := position(data); ok && len(data) >= 6 {
				s.set(p, g.stringValue(data[6:]))
			}
		case recBlank:
			if p, ok := position(data); ok {
				s.touch(p.row, p.col+1)
			}
		case recMulBlank:
			if len(data) >= 6 {
				row := int(binary.LittleEndian.Uint16(data))
				last := int(binary.LittleEndian.Uint16(data[len(data)-2:]))
				s.touch(row, last+1)
			}
		case recNumber:
			if p, ok := position(data); ok && len(data) >= 14 {
				n := math.Float64frombits(binary.LittleEndian.Uint64(data[6:]))
				s.set(p, numberText(n, g.isDateXF(xfIndex(data)), g.date1904))
			}
		case recRK:
			if p, ok := position(data); ok && len(data) >= 10 {
				n := rkValue(binary.LittleEndian.Uint32(data[6:]))
				s.set(p, numberText(n, g.isDateXF(xfIndex(data)), g.date1904))
			}
		case recMulRK:
			if len(data) < 6 {
				continue
			}
			row := int(binary.LittleEndian.Uint16(data))
			col := int(binary.LittleEndian.Uint16(data[2:]))
			for i := 4; i+6 <= len(data)-2; i, col = i+6, col+1 {
				xf := binary.LittleEndian.Uint16(data[i:])
				n := rkValue(binary.LittleEndian.Uint32(data[i+2:]))
				s.set(cellPos{row: row, col: col}, numberText(n, g.isDateXF(xf), g.date1904))
			}
		case recBoolErr:
			if p, ok := position(data); ok && len(data) >= 8 {
				s.set(p, boolErrText(data[6], data[7]))
			}
		case recFormula:
			pending = nil
			p, ok := position(data)
			if !ok || len(data) < 14 {
				continue
			}
			result := data[6:14]
			if result[6] != 0xFF || result[7] != 0xFF {
				n := math.Float64frombits(binary.LittleEndian.Uint64(result))
				s.set(p, numberText(n, g.isDateXF(xfIndex(data)), g.date1904))
				continue
			}
			switch result[0] {
			case 0:
				s.set(p, "")
				pending = &p
			case 1:
				s.set(p, boolErrText(result[2], 0))
			default:
				// error or empty string result
				s.set(p, "")
			}
		case recString:
			if pending != nil {
				s.values[*pending] = g.stringValue(data)
				pending = nil
			}
		}
	}
}

// skipSubstream moves past a nested BOF..EOF block
func skipSubstream(stream []byte, off int) (int, bool) {
	for depth := 1; depth > 0; {
		rec, next, ok := nextRecord(stream, off)
		if !ok {
			return off, false
		}
		off = next
		switch rec.id {
		case recBOF:
			depth++
		case recEOF:
			depth--
		}
	}
	return off, true
}

func position(data []byte) (cellPos, bool) {
	if len(data) < 6 {
		return cellPos{}, false
	}
	return cellPos{
		row: int(binary.LittleEndian.Uint16(data)),
		col: int(binary.LittleEndian.Uint16(data[2:])),
	}, true
}

func xfIndex(data []byte) uint16 {
	return binary.LittleEndian.Uint16(data[4:])
}

// rkValue decodes an RK number: bit 0 divides by 100, bit 1 marks a signed
// 30-bit integer, otherwise the upper 30 bits of an IEEE double
func rkValue(rk uint32) float64 {
	var n float64
	if rk&0x02 != 0 {
		n = float64(int32(rk) >> 2)
	} else {
		n = math.Float64frombits(uint64(rk&0xFFFFFFFC) << 32)
	}
	if rk&0x01 != 0 {
		n /= 100
	}
	return n
}

// boolErrText renders a BOOLERR value; error cells are empty
func boolErrText(value, isError byte) string {
	if isError != 0 {
		return ""
	}
	if value != 0 {
		return "true"
	}
	return "false"
}

// unicodeString decodes a BIFF8 XLUnicodeString: character count, option
// flags, optional rich text and phonetic headers, then the characters
func unicodeString(data []byte) string {
	if len(data) < 3 {
		return ""
	}
	n := int(binary.LittleEndian.Uint16(data))
	flags := data[2]
	data = data[3:]
	if flags&0x08 != 0 && len(data) >= 2 {
		data = data[2:]
	}
	if flags&0x04 != 0 && len(data) >= 4 {
		data = data[4:]
	}

	if flags&0x01 == 0 {
		return byteString(data, n)
	}
	if len(data) < 2*n {
		n = len(data) / 2
	}
	units := make([]uint16, n)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(data[2*i:])
	}
	return string(utf16.Decode(units))
}

// byteString decodes n single-byte characters as Latin-1
func byteString(data []byte, n int) string {
	if len(data) < n {
		n = len(data)
	}
	runes := make([]rune, n)
	for i, b := range data[:n] {
		runes[i] = rune(b)
	}
	return string(runes)
}

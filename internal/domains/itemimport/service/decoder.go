package service

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"inventory-backend/internal/domains/itemimport/model"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"

	// sniffSize: số byte đầu dùng để detect encoding + delimiter
	sniffSize = 64 * 1024
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RawRow là một record của file, cell vẫn là string thô.
// Line là số dòng vật lý (1-based) nơi record bắt đầu.
type RawRow struct {
	Line  int
	Cells []string
}

// StreamDecoder đọc file delimited text từ một nguồn seekable:
// bỏ BOM, đoán delimiter từ dòng header, fallback Windows-1252
// khi nội dung không phải UTF-8 hợp lệ.
type StreamDecoder struct {
	src       io.ReadSeeker
	hasBOM    bool
	Delimiter rune
	Encoding  string

	reader *csv.Reader

	// encoding/csv bỏ qua dòng trống; decoder tự trả lại chúng dưới dạng
	// row một ô rỗng để mỗi dòng vật lý giữa các record đều có outcome.
	nextLine int // dòng vật lý mong đợi của record kế tiếp, 0 = chưa biết
	pending  *RawRow
	pendEnd  int
}

// NewStreamDecoder sniff nguồn rồi rewind về đầu.
// Mọi lỗi đọc ở đây đều là ErrIngestFailure.
func NewStreamDecoder(src io.ReadSeeker) (*StreamDecoder, error) {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, ingestError("seek", err)
	}

	sample, err := io.ReadAll(io.LimitReader(src, sniffSize))
	if err != nil {
		return nil, ingestError("read", err)
	}

	d := &StreamDecoder{src: src, Encoding: EncodingUTF8}

	body := sample
	if bytes.HasPrefix(body, utf8BOM) {
		d.hasBOM = true
		body = body[len(utf8BOM):]
	}

	if !d.hasBOM && !utf8.Valid(trimPartialRune(body, len(sample) == sniffSize)) {
		d.Encoding = EncodingWindows1252
	}

	firstLine := body
	if i := bytes.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = firstLine[:i]
	}
	if d.Encoding == EncodingWindows1252 {
		if decoded, err := charmap.Windows1252.NewDecoder().Bytes(firstLine); err == nil {
			firstLine = decoded
		}
	}
	d.Delimiter = SniffDelimiter(string(bytes.TrimRight(firstLine, "\r")))

	if err := d.Rewind(); err != nil {
		return nil, err
	}
	return d, nil
}

// SniffDelimiter: chọn ';' chỉ khi header có ít nhất một ';' và không có ','.
func SniffDelimiter(headerLine string) rune {
	semicolons := 0
	for _, r := range headerLine {
		switch r {
		case ',':
			return ','
		case ';':
			semicolons++
		}
	}
	if semicolons > 0 {
		return ';'
	}
	return ','
}

// Rewind đưa stream về record đầu tiên (header).
func (d *StreamDecoder) Rewind() error {
	if _, err := d.src.Seek(0, io.SeekStart); err != nil {
		return ingestError("rewind", err)
	}

	br := bufio.NewReader(d.src)
	if d.hasBOM {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return ingestError("skip BOM", err)
		}
	}

	var r io.Reader = br
	if d.Encoding == EncodingWindows1252 {
		r = transform.NewReader(br, charmap.Windows1252.NewDecoder())
	}

	cr := csv.NewReader(r)
	cr.Comma = d.Delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	d.reader = cr
	d.nextLine = 0
	d.pending = nil
	return nil
}

// Next trả về record kế tiếp, io.EOF khi hết.
// Dòng trống nằm giữa hai record được trả về như RawRow{Cells: [""]};
// dòng trống trước header hoặc sau record cuối bị bỏ qua.
// *csv.ParseError là lỗi của riêng record đó: caller có thể đọc tiếp.
// Các lỗi khác đã được wrap ErrIngestFailure.
func (d *StreamDecoder) Next() (RawRow, error) {
	if d.pending != nil {
		if d.nextLine < d.pending.Line {
			blank := RawRow{Line: d.nextLine, Cells: []string{""}}
			d.nextLine++
			return blank, nil
		}
		row := *d.pending
		d.pending = nil
		d.nextLine = d.pendEnd + 1
		return row, nil
	}

	cells, err := d.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return RawRow{}, io.EOF
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			// không biết record lỗi kết thúc ở đâu: record sau sẽ neo lại
			d.nextLine = 0
			return RawRow{Line: parseErr.StartLine}, err
		}
		return RawRow{}, ingestError("read record", err)
	}

	line, _ := d.reader.FieldPos(0)
	row := RawRow{Line: line, Cells: cells}
	end := d.recordEndLine(cells)

	if d.nextLine > 0 && line > d.nextLine {
		d.pending = &row
		d.pendEnd = end
		return d.Next()
	}

	d.nextLine = end + 1
	return row, nil
}

// recordEndLine: dòng vật lý cuối của record vừa đọc (ô cuối có thể
// là quoted field nhiều dòng).
func (d *StreamDecoder) recordEndLine(cells []string) int {
	last := len(cells) - 1
	line, _ := d.reader.FieldPos(last)
	return line + strings.Count(cells[last], "\n")
}

// CountRecords đọc hết stream để đếm số record (kể cả header và dòng
// trống giữa các record) rồi rewind.
func (d *StreamDecoder) CountRecords() (int, error) {
	if err := d.Rewind(); err != nil {
		return 0, err
	}

	n := 0
	for {
		_, err := d.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && errors.Is(err, model.ErrIngestFailure) {
			return 0, err
		}
		n++
	}

	if err := d.Rewind(); err != nil {
		return 0, err
	}
	return n, nil
}

func ingestError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", model.ErrIngestFailure, op, err)
}

// trimPartialRune bỏ rune bị cắt ngang ở cuối sample (chỉ khi sample bị truncate).
func trimPartialRune(b []byte, truncated bool) []byte {
	if !truncated {
		return b
	}
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		r, size := utf8.DecodeLastRune(b)
		if r != utf8.RuneError || size > 1 {
			break
		}
		b = b[:len(b)-1]
	}
	return b
}

package chartfile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// legacyCharsets maps detector names to decoders for non-UTF-8 exports
var legacyCharsets = map[string]encoding.Encoding{
	"windows-1252": charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1251": charmap.Windows1251,
}

// readCSV reads a CSV export, converting legacy encodings to UTF-8 and
// accepting either comma or semicolon separators.
func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)

	peek, _ := br.Peek(4096)
	if bytes.HasPrefix(peek, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
		peek = peek[len(utf8BOM):]
	}

	var in io.Reader = br
	if enc := detectEncoding(peek); enc != nil {
		in = transform.NewReader(br, enc.NewDecoder())
	}

	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.Comma = sniffSeparator(peek)

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// detectEncoding returns nil for UTF-8 (or anything it does not recognize)
func detectEncoding(sample []byte) encoding.Encoding {
	if len(sample) == 0 || isASCII(sample) {
		return nil
	}
	det, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || det == nil {
		return nil
	}
	return legacyCharsets[strings.ToLower(det.Charset)]
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

// sniffSeparator looks at the first line; semicolons win when they outnumber commas
func sniffSeparator(sample []byte) rune {
	line := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		line = sample[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

package validate

import (
	"encoding/xml"
	"io"
	"sort"

	"github.com/andaru/relaxng/rngerr"
	"github.com/andaru/relaxng/xmlutil"
)

// DecoderSource adapts an encoding/xml token stream to the event
// contract: one event per markup item, entity references resolved by
// the decoder, spans derived from decoder byte offsets.
//
// DecoderSource is not safe for concurrent use.
type DecoderSource struct {
	d     *xml.Decoder
	lines *lineReader
	file  string
}

// NewDecoderSource returns a source reading the document from r.
// file names the document in event spans.
func NewDecoderSource(r io.Reader, file string) *DecoderSource {
	lines := &lineReader{r: r}
	d := xml.NewDecoder(lines)
	// entity replacement for the predefined set happens inside the
	// decoder; unknown entities surface as errors from Next
	return &DecoderSource{d: d, lines: lines, file: file}
}

// Next implements TokenSource.
func (s *DecoderSource) Next() (Event, error) {
	for {
		offset := s.d.InputOffset()
		tok, err := s.d.Token()
		if err != nil {
			return nil, err
		}
		loc := s.lines.span(s.file, offset)
		switch tok := tok.(type) {
		case xml.StartElement:
			ev := &StartElement{
				Name:     xmlutil.Name{NS: tok.Name.Space, Local: tok.Name.Local},
				Bindings: xmlutil.NewPrefixMap(tok.Attr...),
				Loc:      loc,
			}
			for _, a := range tok.Attr {
				if isXmlnsAttr(a) {
					continue
				}
				ev.Attrs = append(ev.Attrs, Attr{
					Name:  xmlutil.Name{NS: a.Name.Space, Local: a.Name.Local},
					Value: a.Value,
					Loc:   loc,
				})
			}
			return ev, nil
		case xml.EndElement:
			return &EndElement{Loc: loc}, nil
		case xml.CharData:
			return &Text{Data: string(tok), Loc: loc}, nil
		case xml.Comment:
			return &Comment{Loc: loc}, nil
		case xml.ProcInst:
			return &ProcInst{Loc: loc}, nil
		default:
			// directives carry no validation meaning
		}
	}
}

func isXmlnsAttr(a xml.Attr) bool {
	return a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns")
}

// lineReader records newline offsets as the document streams through
// it, so byte offsets convert to line and column spans.
type lineReader struct {
	r        io.Reader
	pos      int64
	newlines []int64
}

func (l *lineReader) Read(b []byte) (int, error) {
	n, err := l.r.Read(b)
	for i := 0; i < n; i++ {
		if b[i] == '\n' {
			l.newlines = append(l.newlines, l.pos+int64(i))
		}
	}
	l.pos += int64(n)
	return n, err
}

func (l *lineReader) span(file string, offset int64) rngerr.Span {
	line := sort.Search(len(l.newlines), func(i int) bool { return l.newlines[i] >= offset })
	col := offset + 1
	if line > 0 {
		col = offset - l.newlines[line-1]
	}
	return rngerr.Span{File: file, Line: line + 1, Column: int(col), EndLine: line + 1, EndColumn: int(col)}
}

package qti

import (
	"strings"
)

// Attr is a single XML attribute. Attributes are rendered in the order given.
type Attr struct {
	Name  string
	Value string
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "\n", "&#10;", "\r", "&#13;", "\t", "&#9;")
)

// EscapeText escapes character data for element content
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// EscapeAttr escapes a value for use inside a double-quoted attribute
func EscapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

// xmlWriter builds indented XML one line per element.
// Output depends only on the calls made, never on map order or time.
type xmlWriter struct {
	sb     strings.Builder
	indent string
	depth  int
}

func newXMLWriter(indent string) *xmlWriter {
	return &xmlWriter{indent: indent}
}

func (w *xmlWriter) pad() {
	for i := 0; i < w.depth; i++ {
		w.sb.WriteString(w.indent)
	}
}

func (w *xmlWriter) startTag(name string, attrs []Attr) {
	w.sb.WriteByte('<')
	w.sb.WriteString(name)
	for _, a := range attrs {
		w.sb.WriteByte(' ')
		w.sb.WriteString(a.Name)
		w.sb.WriteString(`="`)
		w.sb.WriteString(EscapeAttr(a.Value))
		w.sb.WriteByte('"')
	}
}

// open writes <name attrs...> and increases depth
func (w *xmlWriter) open(name string, attrs ...Attr) {
	w.pad()
	w.startTag(name, attrs)
	w.sb.WriteString(">\n")
	w.depth++
}

// close decreases depth and writes </name>
func (w *xmlWriter) close(name string) {
	w.depth--
	w.pad()
	w.sb.WriteString("</")
	w.sb.WriteString(name)
	w.sb.WriteString(">\n")
}

// empty writes a self-closing element: <name attrs.../>
func (w *xmlWriter) empty(name string, attrs ...Attr) {
	w.pad()
	w.startTag(name, attrs)
	w.sb.WriteString("/>\n")
}

// leaf writes an element with escaped text content on a single line
func (w *xmlWriter) leaf(name, text string, attrs ...Attr) {
	w.pad()
	w.startTag(name, attrs)
	w.sb.WriteByte('>')
	w.sb.WriteString(EscapeText(text))
	w.sb.WriteString("</")
	w.sb.WriteString(name)
	w.sb.WriteString(">\n")
}

// raw writes pre-rendered markup, indenting each non-empty line to the current depth
func (w *xmlWriter) raw(markup string) {
	markup = strings.Trim(markup, "\n")
	if markup == "" {
		return
	}
	for _, line := range strings.Split(markup, "\n") {
		if strings.TrimSpace(line) == "" {
			w.sb.WriteString("\n")
			continue
		}
		w.pad()
		w.sb.WriteString(line)
		w.sb.WriteString("\n")
	}
}

// line writes a single unindented line, used for the XML prolog
func (w *xmlWriter) line(s string) {
	w.sb.WriteString(s)
	w.sb.WriteString("\n")
}

func (w *xmlWriter) String() string {
	return w.sb.String()
}

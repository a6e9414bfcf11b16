package model

import (
	"fmt"
	"strings"
)

// Format renders a pattern for debugging. Refs already printed are
// rendered by name only, so cyclic graphs print in finite space.
func Format(p Pattern) string {
	var b strings.Builder
	seen := map[*Define]bool{}
	format(&b, p, seen)
	return b.String()
}

func format(b *strings.Builder, p Pattern, seen map[*Define]bool) {
	switch p := p.(type) {
	case *Empty:
		b.WriteString("empty")
	case *NotAllowed:
		b.WriteString("notAllowed")
	case *Text:
		b.WriteString("text")
	case *Element:
		b.WriteString("element ")
		formatNameClass(b, p.Name)
		b.WriteString(" { ")
		format(b, p.Content, seen)
		b.WriteString(" }")
	case *Attribute:
		b.WriteString("attribute ")
		formatNameClass(b, p.Name)
		b.WriteString(" { ")
		format(b, p.Value, seen)
		b.WriteString(" }")
	case *Group:
		formatBinary(b, "(", ", ", p.L, p.R, seen)
	case *Interleave:
		formatBinary(b, "(", " & ", p.L, p.R, seen)
	case *Choice:
		formatBinary(b, "(", " | ", p.L, p.R, seen)
	case *OneOrMore:
		format(b, p.P, seen)
		b.WriteString("+")
	case *List:
		b.WriteString("list { ")
		format(b, p.P, seen)
		b.WriteString(" }")
	case *Data:
		fmt.Fprintf(b, "data %s", p.Type)
		if p.Except != nil {
			b.WriteString(" - ")
			format(b, p.Except, seen)
		}
	case *Value:
		fmt.Fprintf(b, "value %s %q", p.Type, p.Lexical)
	case *Ref:
		if seen[p.Define] || p.Define == nil || p.Define.Body == nil {
			b.WriteString(p.Name)
			return
		}
		seen[p.Define] = true
		fmt.Fprintf(b, "%s=", p.Name)
		format(b, p.Define.Body, seen)
	}
}

func formatBinary(b *strings.Builder, open, sep string, l, r Pattern, seen map[*Define]bool) {
	b.WriteString(open)
	format(b, l, seen)
	b.WriteString(sep)
	format(b, r, seen)
	b.WriteString(")")
}

func formatNameClass(b *strings.Builder, nc NameClass) {
	switch nc := nc.(type) {
	case *NameNamed:
		b.WriteString(nc.Name.String())
	case *NameAny:
		b.WriteString("*")
		if nc.Except != nil {
			b.WriteString(" - ")
			formatNameClass(b, nc.Except)
		}
	case *NameNS:
		b.WriteString("{" + nc.NS + "}*")
		if nc.Except != nil {
			b.WriteString(" - ")
			formatNameClass(b, nc.Except)
		}
	case *NameChoice:
		b.WriteString("(")
		formatNameClass(b, nc.A)
		b.WriteString(" | ")
		formatNameClass(b, nc.B)
		b.WriteString(")")
	}
}

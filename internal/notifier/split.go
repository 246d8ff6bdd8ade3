package notifier

import (
	"html"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// splitMessage cuts an HTML message into chunks of at most limit UTF-16 units
// of visible text, the way Telegram measures it. Cuts fall on line boundaries
// when a line fits, and never inside a tag or an entity. Tags still open at a
// cut are closed at the end of the chunk and reopened at the start of the next.
func splitMessage(text string, limit int) []string {
	c := &chunker{limit: limit}
	for _, line := range strings.SplitAfter(text, "\n") {
		w := visibleLen(line)
		if c.n+w > limit && c.n > 0 {
			c.flush()
		}
		if c.n+w <= limit {
			c.write(line)
			continue
		}
		for _, a := range atoms(line) {
			if c.n+visibleLen(a) > limit && c.n > 0 {
				c.flush()
			}
			c.write(a)
		}
	}
	c.flush()
	return c.out
}

type chunker struct {
	limit int
	out   []string
	buf   strings.Builder
	n     int
	open  []string
}

func (c *chunker) write(piece string) {
	c.buf.WriteString(piece)
	c.n += visibleLen(piece)
	for _, a := range atoms(piece) {
		if !isTag(a) {
			continue
		}
		if strings.HasPrefix(a, "</") {
			if len(c.open) > 0 {
				c.open = c.open[:len(c.open)-1]
			}
			continue
		}
		if !strings.HasSuffix(a, "/>") {
			c.open = append(c.open, a)
		}
	}
}

func (c *chunker) flush() {
	chunk := c.buf.String()
	for i := len(c.open) - 1; i >= 0; i-- {
		chunk += "</" + tagName(c.open[i]) + ">"
	}
	if strings.TrimSpace(visibleText(chunk)) != "" {
		c.out = append(c.out, chunk)
	}
	c.buf.Reset()
	c.n = 0
	for _, tag := range c.open {
		c.buf.WriteString(tag)
	}
}

// atoms splits s into tags, entities and single runes.
func atoms(s string) []string {
	var out []string
	for i := 0; i < len(s); {
		size := 0
		switch s[i] {
		case '<':
			if j := strings.IndexByte(s[i:], '>'); j > 0 {
				size = j + 1
			}
		case '&':
			if j := strings.IndexByte(s[i:], ';'); j > 1 && j <= 32 {
				size = j + 1
			}
		}
		if size == 0 {
			_, size = utf8.DecodeRuneInString(s[i:])
		}
		out = append(out, s[i:i+size])
		i += size
	}
	return out
}

func isTag(a string) bool {
	return len(a) > 2 && a[0] == '<' && a[len(a)-1] == '>'
}

func tagName(tag string) string {
	name := strings.TrimLeft(strings.TrimSuffix(tag[1:len(tag)-1], "/"), "/")
	if i := strings.IndexAny(name, " \t\n"); i >= 0 {
		name = name[:i]
	}
	return name
}

func visibleText(s string) string {
	var b strings.Builder
	for _, a := range atoms(s) {
		switch {
		case isTag(a):
		case a[0] == '&':
			b.WriteString(html.UnescapeString(a))
		default:
			b.WriteString(a)
		}
	}
	return b.String()
}

// visibleLen is the length of the text Telegram shows for s, in UTF-16 units.
func visibleLen(s string) int {
	n := 0
	for _, r := range visibleText(s) {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

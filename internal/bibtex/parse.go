package bibtex

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// standardTypes are the entry types kept by the parser. Entries of any other
// type are skipped.
var standardTypes = map[string]bool{
	"article":       true,
	"book":          true,
	"booklet":       true,
	"conference":    true,
	"inbook":        true,
	"incollection":  true,
	"inproceedings": true,
	"manual":        true,
	"mastersthesis": true,
	"misc":          true,
	"phdthesis":     true,
	"proceedings":   true,
	"techreport":    true,
	"unpublished":   true,
}

// commonStrings are the predefined month macros.
var commonStrings = map[string]string{
	"jan": "January", "feb": "February", "mar": "March", "apr": "April",
	"may": "May", "jun": "June", "jul": "July", "aug": "August",
	"sep": "September", "oct": "October", "nov": "November", "dec": "December",
}

// fieldAliases maps variant field names onto their usual spelling.
var fieldAliases = map[string]string{
	"authors":  "author",
	"editors":  "editor",
	"keyw":     "keyword",
	"link":     "url",
	"subjects": "subject",
}

// ParseError reports malformed input with its 1-based line number.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bibtex: line %d: %s", e.Line, e.Msg)
}

// ParseFile parses the bibliography at path.
func ParseFile(path string) (*Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse reads a bibliography. Field names are lower-cased, @string macros
// and # concatenation are expanded, runs of whitespace inside values are
// collapsed, and @comment and @preamble blocks are skipped. Entries keep their
// order, and repeated keys are kept.
func Parse(r io.Reader) (*Collection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p := &parser{src: string(data), macros: make(map[string]string)}
	return p.run()
}

// ParseString parses a bibliography held in memory.
func ParseString(s string) (*Collection, error) {
	return Parse(strings.NewReader(s))
}

type parser struct {
	src    string
	pos    int
	macros map[string]string
}

func (p *parser) errorf(format string, args ...any) error {
	return p.errorAt(p.pos, format, args...)
}

// errorAt reports an error on the line containing offset pos.
func (p *parser) errorAt(pos int, format string, args ...any) error {
	return &ParseError{Line: 1 + strings.Count(p.src[:pos], "\n"), Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// ident reads a bare word: an entry type, field name or macro reference.
func (p *parser) ident() string {
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if isSpace(c) || strings.IndexByte(`{}(),="#@`, c) >= 0 {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) run() (*Collection, error) {
	c := &Collection{}
	for {
		at := strings.IndexByte(p.src[p.pos:], '@')
		if at < 0 {
			return c, nil
		}
		p.pos += at + 1

		typ := strings.ToLower(p.ident())
		p.skipSpace()
		open := p.peek()
		if open != '{' && open != '(' {
			// A stray @ in free text between entries.
			continue
		}
		p.pos++
		closer := byte('}')
		if open == '(' {
			closer = ')'
		}

		switch typ {
		case "comment", "preamble":
			if err := p.skipBlock(open, closer); err != nil {
				return nil, err
			}
		case "string":
			if err := p.stringMacro(closer); err != nil {
				return nil, err
			}
		default:
			e, err := p.entry(typ, closer)
			if err != nil {
				return nil, err
			}
			if standardTypes[typ] {
				c.Add(e)
			}
		}
	}
}

// skipBlock consumes input up to and including the closer that balances an
// already consumed opener.
func (p *parser) skipBlock(open, closer byte) error {
	depth := 1
	for ; !p.eof(); p.pos++ {
		switch p.src[p.pos] {
		case open:
			depth++
		case closer:
			depth--
		}
		if depth == 0 {
			p.pos++
			return nil
		}
	}
	return p.errorf("unterminated block")
}

func (p *parser) stringMacro(closer byte) error {
	p.skipSpace()
	name := strings.ToLower(p.ident())
	if name == "" {
		return p.errorf("expected macro name")
	}
	p.skipSpace()
	if p.peek() != '=' {
		return p.errorf("expected '=' after macro %s", name)
	}
	p.pos++
	value, err := p.value(closer)
	if err != nil {
		return err
	}
	p.macros[name] = value
	p.skipSpace()
	if p.peek() != closer {
		return p.errorf("expected %q after macro %s", closer, name)
	}
	p.pos++
	return nil
}

func (p *parser) entry(typ string, closer byte) (*Entry, error) {
	p.skipSpace()
	start := p.pos
	for !p.eof() && p.src[p.pos] != ',' && p.src[p.pos] != closer {
		p.pos++
	}
	if p.eof() {
		return nil, p.errorf("unterminated @%s entry", typ)
	}
	e := &Entry{Type: typ, ID: strings.TrimSpace(p.src[start:p.pos])}
	if e.ID == "" {
		return nil, p.errorf("@%s entry without a key", typ)
	}

	for {
		p.skipSpace()
		switch p.peek() {
		case 0:
			return nil, p.errorf("unterminated entry %s", e.ID)
		case closer:
			p.pos++
			return e, nil
		case ',':
			p.pos++
			continue
		}

		name := strings.ToLower(p.ident())
		if name == "" {
			return nil, p.errorf("expected field name in entry %s, found %q", e.ID, p.peek())
		}
		if alias, ok := fieldAliases[name]; ok {
			name = alias
		}
		p.skipSpace()
		if p.peek() != '=' {
			return nil, p.errorf("expected '=' after field %s in entry %s", name, e.ID)
		}
		p.pos++

		value, err := p.value(closer)
		if err != nil {
			return nil, err
		}
		e.Set(name, value)
	}
}

// value reads one field value: braced or quoted text, a number or a macro
// name, possibly joined with #.
func (p *parser) value(closer byte) (string, error) {
	var b strings.Builder
	for {
		p.skipSpace()
		switch c := p.peek(); c {
		case '{':
			s, err := p.braced()
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		case '"':
			s, err := p.quoted()
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		default:
			tok := p.ident()
			if tok == "" {
				return "", p.errorf("expected value, found %q", c)
			}
			if m, ok := p.macros[strings.ToLower(tok)]; ok {
				b.WriteString(m)
			} else if m, ok := commonStrings[strings.ToLower(tok)]; ok {
				b.WriteString(m)
			} else {
				b.WriteString(tok)
			}
		}

		p.skipSpace()
		if p.peek() != '#' {
			return strings.Join(strings.Fields(b.String()), " "), nil
		}
		p.pos++
	}
}

// braced reads a {...} group and returns its content with inner braces kept.
func (p *parser) braced() (string, error) {
	open := p.pos
	start := p.pos + 1
	depth := 0
	for ; !p.eof(); p.pos++ {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
		}
		if depth == 0 {
			p.pos++
			return p.src[start : p.pos-1], nil
		}
	}
	return "", p.errorAt(open, "unbalanced braces in value")
}

// quoted reads a "..." string. Quotes inside braces do not end it.
func (p *parser) quoted() (string, error) {
	open := p.pos
	p.pos++
	start := p.pos
	depth := 0
	for ; !p.eof(); p.pos++ {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
		case '"':
			if depth == 0 {
				s := p.src[start:p.pos]
				p.pos++
				return s, nil
			}
		}
	}
	return "", p.errorAt(open, "unterminated quoted value")
}

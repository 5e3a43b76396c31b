package mcfg

import (
	"bufio"
	stderrors "errors"
	"io"
	"os"
	"strings"

	"github.com/agilira/go-errors"
)

const maxLineLength = 16 << 20

// Parser is the line driven state machine building a File. The state is
// given by which of sector, section and pending are set:
//
//	sector == nil            outside of any sector
//	section == nil           inside a sector
//	pending == nil           inside a section
//	otherwise                continuing a multi-line literal
type Parser struct {
	file    *File
	sector  *Sector
	section *Section
	pending *pendingField
	line    int
}

// pendingField is a field whose literal was not closed on its first line.
type pendingField struct {
	field *Field
	text  *strings.Builder
	list  *listState
}

// NewParser returns a parser producing a File for path. The path is only
// used for error messages.
func NewParser(path string) *Parser {
	return &Parser{file: NewFile(path)}
}

// Line returns the number of lines consumed so far.
func (p *Parser) Line() int { return p.line }

// ParseLine feeds the next input line. Trailing line breaks are ignored.
func (p *Parser) ParseLine(line string) error {
	p.line++
	if err := p.parseLine(strings.TrimRight(line, "\r\n")); err != nil {
		return p.wrap(err)
	}
	return nil
}

// Finish ends parsing and returns the document. A literal which is still
// open at the end of the input is a syntax error.
func (p *Parser) Finish() (*File, error) {
	if p.pending != nil {
		return nil, p.wrap(syntaxError(p.pending.field.Name, "unterminated literal at end of input"))
	}
	return p.file, nil
}

func (p *Parser) wrap(err error) error {
	perr := &ParseError{Path: p.file.Path, Line: p.line, Err: err}
	var te *tokenError
	if stderrors.As(err, &te) {
		perr.Token = te.token
		perr.Err = te.err
	}
	return perr
}

func (p *Parser) parseLine(line string) error {
	switch {
	case p.pending != nil:
		return p.continueField(line)
	case p.sector == nil:
		return p.parseOutsideSector(line)
	case p.section == nil:
		return p.parseSector(line)
	default:
		return p.parseSection(line)
	}
}

func (p *Parser) parseOutsideSector(line string) error {
	tok, kind := firstToken(line)
	switch kind {
	case TokenEmpty, TokenComment:
		return nil
	case TokenInvalid:
		return &tokenError{token: tok, err: newError(ErrCodeInvalidKeyword, "invalid keyword")}
	case TokenEnd:
		return &tokenError{token: tok, err: newError(ErrCodeEndInNowhere, "usage of \"end\" in nowhere")}
	case TokenSector:
		name, err := blockName(line)
		if err != nil {
			return err
		}
		sector, err := p.file.AddSector(name)
		if err != nil {
			return &tokenError{token: name, err: err}
		}
		p.sector = sector
		return nil
	}
	return &tokenError{token: tok, err: newError(ErrCodeStructure, "expected sector declaration")}
}

func (p *Parser) parseSector(line string) error {
	tok, kind := firstToken(line)
	switch kind {
	case TokenEmpty, TokenComment:
		return nil
	case TokenInvalid:
		return &tokenError{token: tok, err: newError(ErrCodeInvalidKeyword, "invalid keyword")}
	case TokenEnd:
		p.sector = nil
		return nil
	case TokenSection:
		name, err := blockName(line)
		if err != nil {
			return err
		}
		section, err := p.sector.AddSection(name)
		if err != nil {
			return &tokenError{token: name, err: err}
		}
		p.section = section
		return nil
	}
	return &tokenError{token: tok, err: newError(ErrCodeStructure, "expected section declaration in sector %q", p.sector.Name)}
}

func (p *Parser) parseSection(line string) error {
	tok, kind := firstToken(line)
	switch kind {
	case TokenEmpty, TokenComment:
		return nil
	case TokenInvalid:
		return &tokenError{token: tok, err: newError(ErrCodeInvalidKeyword, "invalid keyword")}
	case TokenEnd:
		p.section = nil
		return nil
	}
	if !kind.IsFieldDecl() {
		return &tokenError{token: tok, err: newError(ErrCodeStructure, "expected field declaration in section %q", p.section.Name)}
	}
	return p.parseDecl(line, kind.FieldType())
}

// blockName returns the name following a sector or section keyword.
func blockName(line string) (string, error) {
	toks := Tokenize(line)
	if len(toks) < 2 {
		return "", syntaxError(toks[0], "missing name")
	}
	if len(toks) > 2 && ClassifyToken(toks[2]) != TokenComment {
		return "", syntaxError(toks[2], "unexpected token")
	}
	return toks[1], nil
}

func (p *Parser) parseDecl(line string, t Type) error {
	toks := Tokenize(line)

	switch t {
	case TypeString:
		// str <name> '<text>
		if len(toks) < 3 {
			return syntaxError(toks[len(toks)-1], "missing value")
		}
		value := line[tokenOffset(line, 2):]
		if value[0] != '\'' {
			return syntaxError(toks[2], "string literal must be quoted")
		}
		text, rest, closed := scanQuoted(value[1:])
		field, err := p.section.AddField(toks[1], String(text))
		if err != nil {
			return &tokenError{token: toks[1], err: err}
		}
		if !closed {
			b := &strings.Builder{}
			b.WriteString(text)
			p.pending = &pendingField{field: field, text: b}
			return nil
		}
		return checkTrailing(rest)

	case TypeList:
		// list <elem-type> <name> <value>[, <value>]*
		if len(toks) < 4 {
			return syntaxError(toks[len(toks)-1], "incomplete list declaration")
		}
		elem := ParseType(toks[1])
		if elem == TypeInvalid || elem == TypeList {
			return &tokenError{token: toks[1], err: newError(ErrCodeInvalidType, "invalid list element type")}
		}
		list := NewList(elem)
		field, err := p.section.AddField(toks[2], list)
		if err != nil {
			return &tokenError{token: toks[2], err: err}
		}
		st := newListState(list)
		more, err := st.feed(line[tokenOffset(line, 3):])
		if err != nil {
			return err
		}
		if more {
			p.pending = &pendingField{field: field, list: st}
		}
		return nil
	}

	// <type> <name> <value>
	if len(toks) < 3 {
		return syntaxError(toks[len(toks)-1], "missing value")
	}
	if len(toks) > 3 && ClassifyToken(toks[3]) != TokenComment {
		return syntaxError(toks[3], "unexpected token")
	}
	v, err := parseScalar(t, toks[2])
	if err != nil {
		return err
	}
	if _, err := p.section.AddField(toks[1], v); err != nil {
		return &tokenError{token: toks[1], err: err}
	}
	return nil
}

func (p *Parser) continueField(line string) error {
	pf := p.pending
	if pf.list != nil {
		more, err := pf.list.feed(line)
		if err != nil {
			return err
		}
		if !more {
			p.pending = nil
		}
		return nil
	}

	text, rest, closed := scanQuoted(line)
	pf.text.WriteByte('\n')
	pf.text.WriteString(text)
	pf.field.Value = String(pf.text.String())
	if !closed {
		return nil
	}
	p.pending = nil
	return checkTrailing(rest)
}

// checkTrailing rejects anything but a comment after a closed literal.
func checkTrailing(rest string) error {
	toks := Tokenize(rest)
	if len(toks) == 0 || ClassifyToken(toks[0]) == TokenComment {
		return nil
	}
	return syntaxError(toks[0], "unexpected token after string literal")
}

// Parse reads a whole document from r.
func Parse(r io.Reader, path string) (*File, error) {
	p := NewParser(path)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for sc.Scan() {
		if err := p.ParseLine(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, ErrCodeOS, "cannot read "+path)
	}
	return p.Finish()
}

// ParseString parses a document held in memory.
func ParseString(src string) (*File, error) {
	return Parse(strings.NewReader(src), "")
}

// ParseFile opens and parses the document at path.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeOS, "cannot open "+path)
	}
	defer func() { _ = f.Close() }()

	return Parse(f, path)
}

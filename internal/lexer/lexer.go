// Package lexer tokenizes ES5 source text.
//
// It is pull-based, mirroring the teacher's one-token-lookahead design:
// Peek fills a lookahead slot, Next consumes it and refills. Because the
// parser keeps a two-token buffer (current + peek), it cannot reliably
// tell the lexer "now" that a "/" must start a regex -- by the time the
// parser inspects the token, the lexer has already scanned past it.
// Instead the lexer decides division-vs-regex itself from the kind of
// token it last emitted, the same heuristic used by most standalone JS
// lexers: "/" starts a regex unless the previous token could itself end
// an expression (an identifier, literal, `)`, `]`, `++`, `--`, or the
// `this` keyword).
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"escargot/internal/token"
)

// Error is a lexical error tied to a source line.
type Error struct {
	Message string
	Line    int
	Column  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (line %d)", e.Message, e.Line)
}

// Lexer scans UTF-16 source text (decoded lazily from the UTF-8 Go
// string) into Tokens.
type Lexer struct {
	input string
	pos   int // byte offset of the current rune
	rdPos int // byte offset of the next rune
	ch    rune
	line  int
	column int
	// lineStart is the byte offset where the current line began; used
	// to compute 0-based column numbers for diagnostics.
	lineStart int

	Strict bool

	lookahead *token.Token
	lastHadNL bool // line terminator seen since the previous emitted token

	// prevSignificant is the last token emitted (excluding the one about
	// to be produced), used to disambiguate "/" as division vs. the start
	// of a regex literal. hasPrev is false only before the first token,
	// where a regex is always permitted.
	prevSignificant token.Token
	hasPrev         bool
}

// New creates a Lexer positioned before the first character of input.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
		l.lineStart = l.pos
	}
	if l.rdPos >= len(l.input) {
		l.ch = 0
		l.pos = l.rdPos
		l.rdPos++
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.rdPos:])
	l.ch = r
	l.pos = l.rdPos
	l.rdPos += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.rdPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.rdPos:])
	return r
}

func (l *Lexer) peekCharAt(offset int) rune {
	pos := l.rdPos
	for i := 0; i < offset; i++ {
		if pos >= len(l.input) {
			return 0
		}
		_, w := utf8.DecodeRuneInString(l.input[pos:])
		pos += w
	}
	if pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[pos:])
	return r
}

// isLineTerminator follows the ES5 LineTerminator production.
func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == ' ' || r == ' '
}

// isWhiteSpace follows the ES5 WhiteSpace production (tab, vtab, ff,
// space, nbsp, BOM, and the Ogham space mark / other Zs category).
func isWhiteSpace(r rune) bool {
	switch r {
	case '\t', '\v', '\f', ' ', 0xA0, 0xFEFF, 0x1680:
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isIdentifierStart(r rune) bool {
	if r == '$' || r == '_' {
		return true
	}
	return unicode.IsLetter(r) || unicode.Is(unicode.Nl, r)
}

func isIdentifierPart(r rune) bool {
	if isIdentifierStart(r) {
		return true
	}
	if r == 0x200C || r == 0x200D { // ZWNJ / ZWJ
		return true
	}
	return unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r) || unicode.Is(unicode.Pc, r)
}

func isDecimalDigit(r rune) bool { return r >= '0' && r <= '9' }
func isHexDigit(r rune) bool {
	return isDecimalDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
func isOctalDigit(r rune) bool { return r >= '0' && r <= '7' }

// skipWhiteSpaceAndComments advances past whitespace and comments,
// setting lastHadNL when a line terminator (bare, or inside a
// multi-line comment) was crossed.
func (l *Lexer) skipWhiteSpaceAndComments() error {
	for {
		if isLineTerminator(l.ch) {
			l.lastHadNL = true
			l.readChar()
			continue
		}
		if isWhiteSpace(l.ch) {
			l.readChar()
			continue
		}
		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != 0 && !isLineTerminator(l.ch) {
				l.readChar()
			}
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			closed := false
			for l.ch != 0 {
				if isLineTerminator(l.ch) {
					l.lastHadNL = true
				}
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					closed = true
					break
				}
				l.readChar()
			}
			if !closed {
				return l.errf("unterminated multi-line comment")
			}
			continue
		}
		// HTML-style single-line comment open: "<!--"
		if l.ch == '<' && l.peekChar() == '!' && l.peekCharAt(2) == '-' && l.peekCharAt(3) == '-' {
			for l.ch != 0 && !isLineTerminator(l.ch) {
				l.readChar()
			}
			continue
		}
		// HTML-style single-line comment close: "-->" only legal at start of line
		if l.ch == '-' && l.peekChar() == '-' && l.peekCharAt(2) == '>' && l.lastHadNL {
			for l.ch != 0 && !isLineTerminator(l.ch) {
				l.readChar()
			}
			continue
		}
		return nil
	}
}

func (l *Lexer) errf(format string, args ...interface{}) error {
	return &Error{Message: fmt.Sprintf(format, args...), Line: l.line, Column: l.column}
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (token.Token, error) {
	if l.lookahead != nil {
		return *l.lookahead, nil
	}
	tok, err := l.scan()
	if err != nil {
		return token.Token{}, err
	}
	l.lookahead = &tok
	return tok, nil
}

// Next consumes and returns the next token.
func (l *Lexer) Next() (token.Token, error) {
	if l.lookahead != nil {
		tok := *l.lookahead
		l.lookahead = nil
		return tok, nil
	}
	return l.scan()
}

func (l *Lexer) scan() (token.Token, error) {
	if err := l.skipWhiteSpaceAndComments(); err != nil {
		return token.Token{}, err
	}
	hadNL := l.lastHadNL
	l.lastHadNL = false

	startLine, startCol, startPos := l.line, l.column, l.pos

	if l.ch == 0 {
		return token.Token{Kind: token.EOF, Line: startLine, Column: startCol, HasLineTerminatorBefore: hadNL}, nil
	}

	var tok token.Token
	var err error
	switch {
	case isIdentifierStart(l.ch):
		tok, err = l.scanIdentifierOrKeyword()
	case isDecimalDigit(l.ch):
		tok, err = l.scanNumber()
	case l.ch == '.' && isDecimalDigit(l.peekChar()):
		tok, err = l.scanNumber()
	case l.ch == '"' || l.ch == '\'':
		tok, err = l.scanString()
	case l.ch == '/' && l.regexAllowed():
		tok, err = l.scanRegex()
	default:
		tok, err = l.scanPunctuator()
	}
	if err != nil {
		return token.Token{}, err
	}
	tok.Line = startLine
	tok.Column = startCol
	tok.Start = startPos
	tok.End = l.pos
	tok.HasLineTerminatorBefore = hadNL
	l.prevSignificant = tok
	l.hasPrev = true
	return tok, nil
}

// regexAllowed reports whether a "/" at the current position begins a
// regex literal rather than a division or compound-assignment operator,
// based on the last token emitted.
func (l *Lexer) regexAllowed() bool {
	if !l.hasPrev {
		return true
	}
	switch l.prevSignificant.Kind {
	case token.IDENTIFIER, token.NUMERIC, token.STRING, token.REGEX,
		token.NULL_LITERAL, token.BOOLEAN_LITERAL:
		return false
	case token.KEYWORD:
		return l.prevSignificant.Tag != token.KW_THIS
	case token.PUNCTUATOR:
		switch l.prevSignificant.Tag {
		case token.RPAREN, token.RBRACKET, token.RBRACE, token.PLUSPLUS, token.MINUSMINUS:
			return false
		}
		return true
	default:
		return true
	}
}

func (l *Lexer) scanIdentifierOrKeyword() (token.Token, error) {
	var sb strings.Builder
	containsEscape := false
	for isIdentifierPart(l.ch) || l.ch == '\\' {
		if l.ch == '\\' {
			containsEscape = true
			l.readChar()
			if l.ch != 'u' {
				return token.Token{}, l.errf("invalid unicode escape in identifier")
			}
			l.readChar()
			r, err := l.readUnicodeEscapeBody()
			if err != nil {
				return token.Token{}, err
			}
			sb.WriteRune(r)
			continue
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	name := sb.String()
	if name == "" {
		return token.Token{}, l.errf("unexpected character %q", l.ch)
	}
	if name == "true" || name == "false" {
		return token.Token{Kind: token.BOOLEAN_LITERAL, Value: name, Raw: name, ContainsEscape: containsEscape}, nil
	}
	if name == "null" {
		return token.Token{Kind: token.NULL_LITERAL, Value: name, Raw: name, ContainsEscape: containsEscape}, nil
	}
	if tag, ok := token.Keywords[name]; ok {
		return token.Token{Kind: token.KEYWORD, Value: name, Raw: name, Tag: tag, ContainsEscape: containsEscape}, nil
	}
	if tag, ok := token.FutureReserved[name]; ok {
		return token.Token{Kind: token.FUTURE_RESERVED, Value: name, Raw: name, Tag: tag, ContainsEscape: containsEscape}, nil
	}
	if tag, ok := token.StrictFutureReserved[name]; ok && l.Strict {
		return token.Token{Kind: token.FUTURE_RESERVED, Value: name, Raw: name, Tag: tag, ContainsEscape: containsEscape}, nil
	}
	return token.Token{Kind: token.IDENTIFIER, Value: name, Raw: name, ContainsEscape: containsEscape}, nil
}

// readUnicodeEscapeBody scans either "{hex+}" or exactly 4 hex digits
// following "\u", returning the decoded code point.
func (l *Lexer) readUnicodeEscapeBody() (rune, error) {
	if l.ch == '{' {
		l.readChar()
		var sb strings.Builder
		for l.ch != '}' {
			if !isHexDigit(l.ch) {
				return 0, l.errf("invalid unicode escape")
			}
			sb.WriteRune(l.ch)
			l.readChar()
		}
		l.readChar() // consume '}'
		v, err := strconv.ParseInt(sb.String(), 16, 64)
		if err != nil || v > 0x10FFFF {
			return 0, l.errf("invalid unicode escape value")
		}
		return rune(v), nil
	}
	var sb strings.Builder
	for i := 0; i < 4; i++ {
		if !isHexDigit(l.ch) {
			return 0, l.errf("invalid unicode escape")
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	v, _ := strconv.ParseInt(sb.String(), 16, 32)
	return rune(v), nil
}

func (l *Lexer) scanNumber() (token.Token, error) {
	var sb strings.Builder

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		sb.WriteRune(l.ch)
		l.readChar()
		sb.WriteRune(l.ch)
		l.readChar()
		if !isHexDigit(l.ch) {
			return token.Token{}, l.errf("missing hexadecimal digits")
		}
		for isHexDigit(l.ch) {
			sb.WriteRune(l.ch)
			l.readChar()
		}
		return l.finishNumber(sb.String(), false)
	}
	if l.ch == '0' && (l.peekChar() == 'o' || l.peekChar() == 'O') {
		sb.WriteRune(l.ch)
		l.readChar()
		sb.WriteRune(l.ch)
		l.readChar()
		for isOctalDigit(l.ch) {
			sb.WriteRune(l.ch)
			l.readChar()
		}
		return l.finishNumber(sb.String(), false)
	}
	if l.ch == '0' && (l.peekChar() == 'b' || l.peekChar() == 'B') {
		sb.WriteRune(l.ch)
		l.readChar()
		sb.WriteRune(l.ch)
		l.readChar()
		for l.ch == '0' || l.ch == '1' {
			sb.WriteRune(l.ch)
			l.readChar()
		}
		return l.finishNumber(sb.String(), false)
	}
	// Legacy implicit octal: "0" followed only by octal digits, no "." or
	// exponent, and no digit 8/9 (which would make it plain decimal).
	if l.ch == '0' && isDecimalDigit(l.peekChar()) {
		allOctal := true
		peekPos := l.rdPos
		for peekPos < len(l.input) {
			r, w := utf8.DecodeRuneInString(l.input[peekPos:])
			if !isDecimalDigit(r) {
				break
			}
			if !isOctalDigit(r) {
				allOctal = false
			}
			peekPos += w
		}
		if allOctal {
			sb.WriteRune(l.ch)
			l.readChar()
			for isOctalDigit(l.ch) {
				sb.WriteRune(l.ch)
				l.readChar()
			}
			tok, err := l.finishNumber(sb.String(), true)
			tok.OctalLiteral = true
			return tok, err
		}
	}

	for isDecimalDigit(l.ch) {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	if l.ch == '.' {
		sb.WriteRune(l.ch)
		l.readChar()
		for isDecimalDigit(l.ch) {
			sb.WriteRune(l.ch)
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		sb.WriteRune(l.ch)
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			sb.WriteRune(l.ch)
			l.readChar()
		}
		if !isDecimalDigit(l.ch) {
			return token.Token{}, l.errf("missing exponent digits")
		}
		for isDecimalDigit(l.ch) {
			sb.WriteRune(l.ch)
			l.readChar()
		}
	}
	return l.finishNumber(sb.String(), false)
}

func (l *Lexer) finishNumber(text string, octal bool) (token.Token, error) {
	if isIdentifierStart(l.ch) || isDecimalDigit(l.ch) {
		return token.Token{}, l.errf("identifier starts immediately after numeric literal")
	}
	return token.Token{Kind: token.NUMERIC, Value: text, Raw: text, OctalLiteral: octal}, nil
}

func (l *Lexer) scanString() (token.Token, error) {
	quote := l.ch
	l.readChar()
	var sb strings.Builder
	octal := false
	rawStart := l.pos
	for l.ch != quote {
		if l.ch == 0 || isLineTerminator(l.ch) {
			return token.Token{}, l.errf("unterminated string literal")
		}
		if l.ch == '\\' {
			l.readChar()
			if isLineTerminator(l.ch) {
				// line continuation
				if l.ch == '\r' && l.peekChar() == '\n' {
					l.readChar()
				}
				l.readChar()
				continue
			}
			r, isOctal, err := l.readEscapeSequence()
			if err != nil {
				return token.Token{}, err
			}
			if isOctal {
				octal = true
			}
			if r >= 0 {
				sb.WriteRune(r)
			}
			continue
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	raw := l.input[rawStart:l.pos]
	l.readChar() // consume closing quote
	return token.Token{Kind: token.STRING, Value: sb.String(), Raw: string(quote) + raw + string(quote), OctalLiteral: octal}, nil
}

// readEscapeSequence scans the body of a "\x" escape (the backslash has
// already been consumed) and returns the decoded rune, whether it was
// an octal escape, and an error.
func (l *Lexer) readEscapeSequence() (rune, bool, error) {
	switch l.ch {
	case 'n':
		l.readChar()
		return '\n', false, nil
	case 'r':
		l.readChar()
		return '\r', false, nil
	case 't':
		l.readChar()
		return '\t', false, nil
	case 'b':
		l.readChar()
		return '\b', false, nil
	case 'f':
		l.readChar()
		return '\f', false, nil
	case 'v':
		l.readChar()
		return '\v', false, nil
	case 'x':
		l.readChar()
		var sb strings.Builder
		for i := 0; i < 2; i++ {
			if !isHexDigit(l.ch) {
				return 0, false, l.errf("invalid hexadecimal escape")
			}
			sb.WriteRune(l.ch)
			l.readChar()
		}
		v, _ := strconv.ParseInt(sb.String(), 16, 32)
		return rune(v), false, nil
	case 'u':
		l.readChar()
		r, err := l.readUnicodeEscapeBody()
		return r, false, err
	case '0':
		if !isDecimalDigit(l.peekChar()) {
			l.readChar()
			return 0, false, nil
		}
		return l.readOctalEscape(3)
	case '1', '2', '3':
		return l.readOctalEscape(3)
	case '4', '5', '6', '7':
		return l.readOctalEscape(2)
	default:
		r := l.ch
		l.readChar()
		return r, false, nil
	}
}

func (l *Lexer) readOctalEscape(maxDigits int) (rune, bool, error) {
	var sb strings.Builder
	for i := 0; i < maxDigits && isOctalDigit(l.ch); i++ {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	v, _ := strconv.ParseInt(sb.String(), 8, 32)
	return rune(v), true, nil
}

// punctuator table, matched longest-first.
var punctuators = []struct {
	text string
	tag  int
}{
	{">>>=", token.URSHIFT_ASSIGN},
	{"===", token.SEQ},
	{"!==", token.SNEQ},
	{">>>", token.URSHIFT},
	{"<<=", token.LSHIFT_ASSIGN},
	{">>=", token.RSHIFT_ASSIGN},
	{"==", token.EQ},
	{"!=", token.NEQ},
	{"<=", token.LE},
	{">=", token.GE},
	{"++", token.PLUSPLUS},
	{"--", token.MINUSMINUS},
	{"<<", token.LSHIFT},
	{">>", token.RSHIFT},
	{"&&", token.ANDAND},
	{"||", token.OROR},
	{"+=", token.PLUS_ASSIGN},
	{"-=", token.MINUS_ASSIGN},
	{"*=", token.MUL_ASSIGN},
	{"%=", token.MOD_ASSIGN},
	{"&=", token.BAND_ASSIGN},
	{"|=", token.BOR_ASSIGN},
	{"^=", token.BXOR_ASSIGN},
	{"/=", token.DIV_ASSIGN},
	{"{", token.LBRACE},
	{"}", token.RBRACE},
	{"(", token.LPAREN},
	{")", token.RPAREN},
	{"[", token.LBRACKET},
	{"]", token.RBRACKET},
	{".", token.DOT},
	{";", token.SEMICOLON},
	{",", token.COMMA},
	{"<", token.LT},
	{">", token.GT},
	{"+", token.PLUS},
	{"-", token.MINUS},
	{"*", token.MUL},
	{"%", token.MOD},
	{"&", token.BAND},
	{"|", token.BOR},
	{"^", token.BXOR},
	{"!", token.NOT},
	{"~", token.BNOT},
	{"?", token.QUESTION},
	{":", token.COLON},
	{"=", token.ASSIGN},
	{"/", token.DIV},
}

func (l *Lexer) scanPunctuator() (token.Token, error) {
	rest := l.input[l.pos:]
	for _, p := range punctuators {
		if strings.HasPrefix(rest, p.text) {
			for range p.text {
				l.readChar()
			}
			return token.Token{Kind: token.PUNCTUATOR, Value: p.text, Raw: p.text, Tag: p.tag}, nil
		}
	}
	return token.Token{}, l.errf("unexpected character %q", l.ch)
}

// scanRegex scans a regular-expression literal body and trailing flags.
// Called from scan() once regexAllowed has determined "/" cannot be
// division.
func (l *Lexer) scanRegex() (token.Token, error) {
	l.readChar()
	var body strings.Builder
	inClass := false
	for {
		if l.ch == 0 || isLineTerminator(l.ch) {
			return token.Token{}, l.errf("unterminated regular expression")
		}
		if l.ch == '\\' {
			body.WriteRune(l.ch)
			l.readChar()
			if l.ch == 0 || isLineTerminator(l.ch) {
				return token.Token{}, l.errf("unterminated regular expression")
			}
			body.WriteRune(l.ch)
			l.readChar()
			continue
		}
		if l.ch == '[' {
			inClass = true
		} else if l.ch == ']' {
			inClass = false
		} else if l.ch == '/' && !inClass {
			break
		}
		body.WriteRune(l.ch)
		l.readChar()
	}
	l.readChar() // consume closing '/'
	var flags strings.Builder
	for isIdentifierPart(l.ch) {
		flags.WriteRune(l.ch)
		l.readChar()
	}
	return token.Token{Kind: token.REGEX, Value: body.String(), Raw: flags.String()}, nil
}

// Utf16Len returns the UTF-16 code-unit length of s, used when
// validating string/array lengths against the ES5 2^32-1 bound.
func Utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

package lexer

import (
	"strings"
	"unicode"
)

// Lexer splits TJA source into line tokens.
type Lexer struct {
	lines []string
	pos   int // next line index
}

// New creates a new Lexer.
func New(input string) *Lexer {
	input = strings.TrimPrefix(input, "\uFEFF")
	return &Lexer{
		lines: strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n"),
	}
}

// NextToken returns the token for the next non-blank line.
func (l *Lexer) NextToken() Token {
	for l.pos < len(l.lines) {
		raw := l.lines[l.pos]
		l.pos++
		if strings.TrimSpace(raw) == "" {
			continue
		}
		return Classify(raw, l.pos)
	}
	return Token{Type: TOKEN_EOF, Line: len(l.lines)}
}

// Tokens は残りの行をすべてトークン化する（EOFは含まない）
func (l *Lexer) Tokens() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == TOKEN_EOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

// Classify は1行を分類する。line は1始まりの行番号。
func Classify(raw string, line int) Token {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "//") {
		return Token{Type: TOKEN_COMMENT, Literal: text, Value: strings.TrimSpace(text[2:]), Line: line}
	}
	if i := strings.Index(text, "//"); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}

	tok := Token{Type: TOKEN_ILLEGAL, Literal: text, Line: line}
	switch {
	case strings.HasPrefix(text, "#"):
		name, args := text[1:], ""
		if i := strings.IndexFunc(name, unicode.IsSpace); i >= 0 {
			name, args = name[:i], name[i+1:]
		}
		if isUpperName(name) {
			tok.Type = TOKEN_COMMAND
			tok.Name = name
			tok.Value = strings.TrimSpace(args)
		}
	case isHeader(text):
		key, value, _ := strings.Cut(text, ":")
		tok.Type = TOKEN_HEADER
		tok.Name = key
		tok.Value = strings.TrimSpace(value)
	case isNoteRow(text):
		tok.Type = TOKEN_NOTES
		tok.Value = strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, text)
	}
	return tok
}

// isHeader は KEY:VALUE 形式（KEYは大文字と数字）かどうか
func isHeader(text string) bool {
	key, _, found := strings.Cut(text, ":")
	return found && isUpperName(key) && !unicode.IsDigit(rune(key[0]))
}

// isNoteRow はノーツ列かどうか。先頭はノーツ文字か小節区切りで、
// 残りは英数字・区切り・空白のみ。
func isNoteRow(text string) bool {
	if text == "" {
		return false
	}
	first := rune(text[0])
	if first != ',' && !unicode.IsDigit(first) && LookupNote(first) == NoteBlank {
		return false
	}
	for _, r := range text {
		if r == ',' || unicode.IsSpace(r) || ('0' <= r && r <= '9') || ('A' <= r && r <= 'Z') || ('a' <= r && r <= 'z') {
			continue
		}
		return false
	}
	return true
}

func isUpperName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !('A' <= r && r <= 'Z') && !('0' <= r && r <= '9') {
			return false
		}
	}
	return true
}

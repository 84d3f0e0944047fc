// Package lexer provides line classification for TJA chart sources.
package lexer

// TokenType represents the type of a line token.
type TokenType int

// Token types
const (
	TOKEN_ILLEGAL TokenType = iota // 解釈できない行（診断のみ、解析は続行）
	TOKEN_EOF
	TOKEN_COMMENT // // で始まる行
	TOKEN_HEADER  // KEY:VALUE
	TOKEN_COMMAND // #NAME [ARGS]
	TOKEN_NOTES   // ノーツ列（, で小節終わり）
)

// Token represents one classified source line.
type Token struct {
	Type    TokenType
	Literal string // コメント除去・トリム済みの行
	Name    string // ヘッダのキーまたはコマンド名
	Value   string // ヘッダの値、コマンドの引数、ノーツ列
	Line    int    // 1始まりの行番号
}

// tokenTypeNames maps TokenType to its string representation.
var tokenTypeNames = map[TokenType]string{
	TOKEN_ILLEGAL: "ILLEGAL",
	TOKEN_EOF:     "EOF",
	TOKEN_COMMENT: "COMMENT",
	TOKEN_HEADER:  "HEADER",
	TOKEN_COMMAND: "COMMAND",
	TOKEN_NOTES:   "NOTES",
}

// String returns a string representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// NoteKind はTJAのノーツ文字が表す種類
type NoteKind int

const (
	NoteBlank       NoteKind = iota // 0 と未知の文字
	NoteDon                         // 1
	NoteKa                          // 2
	NoteDonBig                      // 3
	NoteKaBig                       // 4
	NoteDrumroll                    // 5
	NoteDrumrollBig                 // 6
	NoteBalloon                     // 7
	NoteEndRoll                     // 8
	NoteKusudama                    // 9
	NoteDonHand                     // A
	NoteKaHand                      // B
)

var noteAlphabet = map[rune]NoteKind{
	'0': NoteBlank,
	'1': NoteDon,
	'2': NoteKa,
	'3': NoteDonBig,
	'4': NoteKaBig,
	'5': NoteDrumroll,
	'6': NoteDrumrollBig,
	'7': NoteBalloon,
	'8': NoteEndRoll,
	'9': NoteKusudama,
	'A': NoteDonHand,
	'B': NoteKaHand,
}

var noteKindNames = map[NoteKind]string{
	NoteBlank:       "Blank",
	NoteDon:         "Don",
	NoteKa:          "Ka",
	NoteDonBig:      "DON",
	NoteKaBig:       "KA",
	NoteDrumroll:    "Drumroll",
	NoteDrumrollBig: "DRUMROLL",
	NoteBalloon:     "Balloon",
	NoteEndRoll:     "EndDRB",
	NoteKusudama:    "Kusudama",
	NoteDonHand:     "DON2",
	NoteKaHand:      "KA2",
}

// LookupNote はノーツ文字を種類に変換する。
// アルファベット外の文字は NoteBlank（位置だけ進める埋め草）になる。
func LookupNote(ch rune) NoteKind {
	if kind, ok := noteAlphabet[ch]; ok {
		return kind
	}
	return NoteBlank
}

// String returns the note kind name.
func (k NoteKind) String() string {
	if name, ok := noteKindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsHit はドン・カッ系（分岐の精度計算で1として数える）かどうか
func (k NoteKind) IsHit() bool {
	switch k {
	case NoteDon, NoteKa, NoteDonBig, NoteKaBig, NoteDonHand, NoteKaHand:
		return true
	}
	return false
}

// IsRollStart は連打・風船・くす玉の開始かどうか
func (k NoteKind) IsRollStart() bool {
	switch k {
	case NoteDrumroll, NoteDrumrollBig, NoteBalloon, NoteKusudama:
		return true
	}
	return false
}

// IsBalloon は風船・くす玉かどうか
func (k NoteKind) IsBalloon() bool {
	return k == NoteBalloon || k == NoteKusudama
}

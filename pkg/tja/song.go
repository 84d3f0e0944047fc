// Package tja parses TJA chart sources into per-course note data.
//
// Parse splits a source into courses (one per difficulty and player) and
// Assemble turns one course into per-branch measures whose notes and commands
// are merged into a single position-ordered sequence.
package tja

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/zurustar/tja2fumen/pkg/tja/lexer"
)

// Difficulty は難易度
type Difficulty int

const (
	DifficultyEasy Difficulty = iota
	DifficultyNormal
	DifficultyHard
	DifficultyOni
	DifficultyUra
)

var difficultyNames = map[Difficulty]string{
	DifficultyEasy:   "Easy",
	DifficultyNormal: "Normal",
	DifficultyHard:   "Hard",
	DifficultyOni:    "Oni",
	DifficultyUra:    "Ura",
}

// difficultyAliases は COURSE: の値（小文字化済み）から難易度への対応
var difficultyAliases = map[string]Difficulty{
	"0":      DifficultyEasy,
	"easy":   DifficultyEasy,
	"1":      DifficultyNormal,
	"normal": DifficultyNormal,
	"2":      DifficultyHard,
	"hard":   DifficultyHard,
	"3":      DifficultyOni,
	"oni":    DifficultyOni,
	"4":      DifficultyUra,
	"ura":    DifficultyUra,
	"edit":   DifficultyUra,
}

// ParseDifficulty は COURSE: の値を正規化する（大文字小文字は区別しない）
func ParseDifficulty(s string) (Difficulty, error) {
	if d, ok := difficultyAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("unknown course %q", s)
}

// String returns the canonical course name.
func (d Difficulty) String() string {
	if name, ok := difficultyNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Difficulty(%d)", int(d))
}

// Player は STYLE:Double の担当プレイヤー
type Player int

const (
	PlayerSingle Player = iota
	PlayerOne
	PlayerTwo
)

// CourseID はコースを識別する（難易度＋プレイヤー）
type CourseID struct {
	Difficulty Difficulty
	Player     Player
}

// String returns the course key, e.g. "Oni" or "HardP2".
func (id CourseID) String() string {
	switch id.Player {
	case PlayerOne:
		return id.Difficulty.String() + "P1"
	case PlayerTwo:
		return id.Difficulty.String() + "P2"
	}
	return id.Difficulty.String()
}

// Course は1コース分のメタデータと #START〜#END 間のトークン列
type Course struct {
	ID        CourseID
	Level     int
	ScoreInit int
	ScoreDiff int
	// Balloons は分岐ごとの風船打数（BALLOON が3つすべての初期値になる）
	Balloons [BranchCount][]int

	tokens []lexer.Token
	name   string // 解釈できない COURSE: / #START の値（変換できないコース）
	err    error  // このコースだけを失敗させるエラー
}

// Name returns the course label used in logs and errors.
func (c *Course) Name() string {
	if c.name != "" {
		return c.name
	}
	return c.ID.String()
}

// Rejected はコース名や #START の引数を解釈できなかったコースかどうか
func (c *Course) Rejected() bool {
	return c.name != ""
}

// Err はこのコースの解析中に見つかったエラーを返す
func (c *Course) Err() error {
	return c.err
}

func (c *Course) setErr(err error) {
	if c.err == nil {
		c.err = err
	}
}

// HasData reports whether the course contains note data.
func (c *Course) HasData() bool {
	for _, tok := range c.tokens {
		if tok.Type == lexer.TOKEN_NOTES {
			return true
		}
	}
	return false
}

// CloneForPlayer はメタデータを複製した新しいコースを返す。トークン列は空。
func (c *Course) CloneForPlayer(p Player) *Course {
	clone := &Course{
		ID:        CourseID{Difficulty: c.ID.Difficulty, Player: p},
		Level:     c.Level,
		ScoreInit: c.ScoreInit,
		ScoreDiff: c.ScoreDiff,
		err:       c.err,
	}
	for b := range c.Balloons {
		clone.Balloons[b] = append([]int(nil), c.Balloons[b]...)
	}
	return clone
}

// Song は TJA ファイル全体
type Song struct {
	Title     string
	Subtitle  string
	Wave      string
	BPM       float64
	Offset    float64
	DemoStart float64

	// Courses は出現順。ノーツのないコースは含まない。
	// 解釈できなかったコース（Rejected）は末尾に並ぶ。
	Courses []*Course

	source string
	log    *slog.Logger
}

// Option configures Parse.
type Option func(*Song)

// WithLogger sets the logger used while parsing and assembling.
func WithLogger(log *slog.Logger) Option {
	return func(s *Song) {
		s.log = log
	}
}

// Course returns the course with the given id, or nil.
func (s *Song) Course(id CourseID) *Course {
	for _, c := range s.Courses {
		if !c.Rejected() && c.ID == id {
			return c
		}
	}
	return nil
}

// Parse はソースをコースごとに分割する
func Parse(src string, opts ...Option) (*Song, error) {
	s := &Song{source: src, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	sp := &splitter{
		song:    s,
		base:    CourseID{Difficulty: DifficultyOni},
		courses: make(map[CourseID]*Course),
	}
	sp.current = sp.base

	l := lexer.New(src)
	for tok := l.NextToken(); tok.Type != lexer.TOKEN_EOF; tok = l.NextToken() {
		if err := sp.step(tok); err != nil {
			return nil, err
		}
	}
	sp.finish()

	if len(s.Courses) > 0 && s.BPM <= 0 {
		return nil, &ParseError{Measure: -1, Message: "BPM header is missing or not positive"}
	}
	return s, nil
}

// splitter は行トークンをコースへ振り分ける。
// コースに属するヘッダや #START の誤りはそのコースにだけ記録し、分割を続ける。
type splitter struct {
	song    *Song
	base    CourseID // 直近の COURSE: （シングル）
	current CourseID
	inData  bool

	// placeholder は解釈できない COURSE: / #START の後のデータの行き先
	placeholder *Course
	// endClears は #END で placeholder を外すかどうか（#START の誤り）
	endClears bool

	courses  map[CourseID]*Course
	order    []CourseID
	rejected []*Course
}

func (sp *splitter) course(id CourseID) *Course {
	c, ok := sp.courses[id]
	if !ok {
		c = &Course{ID: id}
		sp.courses[id] = c
		sp.order = append(sp.order, id)
	}
	return c
}

// active はヘッダ・トークンの書き込み先のコース
func (sp *splitter) active() *Course {
	if sp.placeholder != nil {
		return sp.placeholder
	}
	return sp.course(sp.current)
}

// reject は変換できないコースを作り、以降のデータの行き先にする
func (sp *splitter) reject(name string, err error, endClears bool) {
	c := &Course{name: name, err: err}
	sp.rejected = append(sp.rejected, c)
	sp.placeholder = c
	sp.endClears = endClears
}

func (sp *splitter) errorf(course string, tok lexer.Token, format string, args ...any) *ParseError {
	return &ParseError{
		Course:  course,
		Measure: -1,
		Line:    tok.Line,
		Message: fmt.Sprintf(format, args...),
		Context: GenerateErrorContext(sp.song.source, tok.Line),
	}
}

func (sp *splitter) step(tok lexer.Token) error {
	switch tok.Type {
	case lexer.TOKEN_COMMENT:
		return nil
	case lexer.TOKEN_ILLEGAL:
		sp.song.log.Warn("Unrecognized line", "line", tok.Line, "text", tok.Literal)
		return nil
	case lexer.TOKEN_HEADER:
		return sp.header(tok)
	case lexer.TOKEN_COMMAND:
		if tok.Name == "START" {
			sp.start(tok)
			return nil
		}
		if !sp.inData {
			sp.song.log.Debug("Command outside of note data", "line", tok.Line, "command", tok.Name)
			return nil
		}
		c := sp.active()
		c.tokens = append(c.tokens, tok)
		if tok.Name == "END" {
			sp.inData = false
			if sp.endClears {
				sp.placeholder, sp.endClears = nil, false
			}
		}
		return nil
	case lexer.TOKEN_NOTES:
		if !sp.inData {
			sp.song.log.Debug("Note data outside of #START/#END", "line", tok.Line)
			return nil
		}
		c := sp.active()
		c.tokens = append(c.tokens, tok)
	}
	return nil
}

func (sp *splitter) start(tok lexer.Token) {
	switch {
	case sp.placeholder != nil && !sp.endClears:
		// 解釈できない COURSE: のデータ
	case tok.Value == "":
		sp.current = sp.base
	case tok.Value == "P1" || tok.Value == "P2":
		player := PlayerOne
		if tok.Value == "P2" {
			player = PlayerTwo
		}
		sp.current = CourseID{Difficulty: sp.base.Difficulty, Player: player}
		clone := sp.course(sp.base).CloneForPlayer(player)
		if _, ok := sp.courses[sp.current]; !ok {
			sp.order = append(sp.order, sp.current)
		}
		sp.courses[sp.current] = clone
	default:
		name := sp.base.String() + tok.Value
		sp.reject(name, sp.errorf(name, tok, "invalid #START argument %q", tok.Value), true)
	}
	sp.inData = true
	c := sp.active()
	c.tokens = append(c.tokens, tok)
}

func (sp *splitter) header(tok lexer.Token) error {
	s := sp.song
	v := tok.Value
	var err error
	switch tok.Name {
	case "TITLE":
		s.Title = v
	case "SUBTITLE":
		s.Subtitle = v
	case "WAVE":
		s.Wave = v
	case "BPM":
		s.BPM, err = parseFloat(v)
	case "OFFSET":
		s.Offset, err = parseFloat(v)
	case "DEMOSTART":
		s.DemoStart, err = parseFloat(v)
	case "COURSE":
		d, derr := ParseDifficulty(v)
		if derr != nil {
			sp.reject(v, sp.errorf(v, tok, "invalid COURSE value: %v", derr), false)
			return nil
		}
		sp.placeholder, sp.endClears = nil, false
		sp.base = CourseID{Difficulty: d}
		sp.current = sp.base
	case "STYLE":
		if strings.EqualFold(v, "single") {
			sp.current = sp.base
		}
	default:
		return sp.courseHeader(tok)
	}
	if err != nil {
		// 曲全体の値はすべてのコースに影響する
		return sp.errorf("", tok, "invalid %s value: %v", tok.Name, err)
	}
	return nil
}

// courseHeader はコースごとのヘッダを処理する。誤りはそのコースにだけ記録する。
func (sp *splitter) courseHeader(tok lexer.Token) error {
	c := sp.active()
	v := tok.Value
	var err error
	switch tok.Name {
	case "LEVEL":
		c.Level, err = parseInt(v)
	case "SCOREINIT":
		c.ScoreInit, err = parseLastInt(v)
	case "SCOREDIFF":
		c.ScoreDiff, err = parseLastInt(v)
	case "BALLOON":
		var counts []int
		if counts, err = parseIntList(v); err == nil {
			for b := range c.Balloons {
				c.Balloons[b] = append([]int(nil), counts...)
			}
		}
	case "BALLOONNOR", "BALLOONEXP", "BALLOONMAS":
		var counts []int
		if counts, err = parseIntList(v); err == nil {
			b := map[string]Branch{"BALLOONNOR": BranchNormal, "BALLOONEXP": BranchProfessional, "BALLOONMAS": BranchMaster}[tok.Name]
			c.Balloons[b] = counts
		}
	default:
		sp.song.log.Debug("Ignoring header", "line", tok.Line, "name", tok.Name)
	}
	if err != nil {
		perr := sp.errorf(c.Name(), tok, "invalid %s value: %v", tok.Name, err)
		sp.song.log.Warn("Course header rejected", "course", c.Name(), "line", tok.Line, "error", perr.Message)
		c.setErr(perr)
	}
	return nil
}

// finish は P1 しかない難易度のシングル譜面を補い、空のコースを除く
func (sp *splitter) finish() {
	for _, id := range sp.order {
		c := sp.courses[id]
		if id.Player != PlayerSingle || c.HasData() {
			continue
		}
		p1, ok := sp.courses[CourseID{Difficulty: id.Difficulty, Player: PlayerOne}]
		if !ok || !p1.HasData() {
			continue
		}
		filled := p1.CloneForPlayer(PlayerSingle)
		filled.tokens = append([]lexer.Token(nil), p1.tokens...)
		sp.courses[id] = filled
	}
	for _, id := range sp.order {
		if c := sp.courses[id]; c.HasData() || c.err != nil {
			sp.song.Courses = append(sp.song.Courses, c)
		}
	}
	sp.song.Courses = append(sp.song.Courses, sp.rejected...)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// parseLastInt は "a,b" 形式なら最後の値を使う
func parseLastInt(s string) (int, error) {
	parts := strings.Split(s, ",")
	return parseInt(strings.TrimSpace(parts[len(parts)-1]))
}

func parseIntList(s string) ([]int, error) {
	var values []int
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

package tja

import (
	"fmt"
	"strconv"

	"github.com/zurustar/tja2fumen/pkg/tja/lexer"
)

// Cursor はノーツ行・コマンドの書き込み先の分岐
type Cursor int

const (
	CursorUnbranched Cursor = iota
	CursorNormal
	CursorProfessional
	CursorMaster
	CursorAll
)

// Targets returns the branches written to under this cursor.
func (c Cursor) Targets() []Branch {
	switch c {
	case CursorNormal, CursorUnbranched:
		return []Branch{BranchNormal}
	case CursorProfessional:
		return []Branch{BranchProfessional}
	case CursorMaster:
		return []Branch{BranchMaster}
	}
	return []Branch{BranchNormal, BranchProfessional, BranchMaster}
}

// Chart は1コース分の組み立て済みデータ
type Chart struct {
	Course *Course
	BPM    float64
	Offset float64

	// HasBranches が false のとき普通譜面のみ（玄人・達人は空）
	HasBranches bool
	Branches    [BranchCount][]Measure
}

// MeasureCount は普通譜面の小節数
func (c *Chart) MeasureCount() int {
	return len(c.Branches[BranchNormal])
}

// Assemble は1コースのトークン列を分岐ごとの小節列に組み立てる。
// 解析時にコースへ記録されたエラーがあればそれを返す。
func (s *Song) Assemble(c *Course) (*Chart, error) {
	if c.err != nil {
		return nil, c.err
	}
	a := &assembler{
		song:   s,
		course: c,
		tokens: c.tokens,
	}
	for _, tok := range c.tokens {
		if tok.Type == lexer.TOKEN_COMMAND && (tok.Name == "BRANCHSTART" || tok.Name == "BRANCHEND") {
			a.hasBranches = true
			break
		}
	}
	a.reset()
	for b := range a.branches {
		a.branches[b] = []Measure{{}}
	}

	for a.i = 0; a.i < len(a.tokens); a.i++ {
		if err := a.step(a.tokens[a.i]); err != nil {
			return nil, err
		}
	}
	return a.finish()
}

type assembler struct {
	song        *Song
	course      *Course
	tokens      []lexer.Token
	i           int
	hasBranches bool

	cursor        Cursor
	idx           int // 書き込み中の小節番号
	branchStart   int // 直近の #BRANCHSTART の小節番号（#N/#E/#M で戻る位置）
	lastCondition *BranchCondition

	branches [BranchCount][]Measure
}

func (a *assembler) reset() {
	if a.hasBranches {
		a.cursor = CursorAll
	} else {
		a.cursor = CursorUnbranched
	}
}

func (a *assembler) errorf(tok lexer.Token, format string, args ...any) error {
	return &ParseError{
		Course:  a.course.ID.String(),
		Measure: a.idx,
		Line:    tok.Line,
		Message: fmt.Sprintf(format, args...),
		Context: GenerateErrorContext(a.song.source, tok.Line),
	}
}

// measure は分岐 b の書き込み中の小節を返す
func (a *assembler) measure(tok lexer.Token, b Branch) (*Measure, error) {
	if a.idx >= len(a.branches[b]) {
		return nil, a.errorf(tok, "branch length mismatch: %s branch has %d measures, expected at least %d",
			b, len(a.branches[b]), a.idx+1)
	}
	return &a.branches[b][a.idx], nil
}

func (a *assembler) step(tok lexer.Token) error {
	switch tok.Type {
	case lexer.TOKEN_NOTES:
		return a.notes(tok)
	case lexer.TOKEN_COMMAND:
		return a.command(tok)
	}
	return nil
}

// notes はノーツ行を書き込み先の小節に追加する。, で小節を閉じる。
func (a *assembler) notes(tok lexer.Token) error {
	for _, r := range tok.Value {
		if r == ',' {
			a.idx++
			for _, b := range a.cursor.Targets() {
				if a.idx >= len(a.branches[b]) {
					a.branches[b] = append(a.branches[b], Measure{})
				}
			}
			continue
		}
		for _, b := range a.cursor.Targets() {
			m, err := a.measure(tok, b)
			if err != nil {
				return err
			}
			m.Notes = append(m.Notes, lexer.LookupNote(r))
		}
	}
	return nil
}

func (a *assembler) command(tok lexer.Token) error {
	ev := Event{}
	switch tok.Name {
	case "START", "END":
		a.reset()
		return nil
	case "N", "E", "M":
		if !a.hasBranches {
			a.song.log.Debug("Ignoring branch selector without #BRANCHSTART",
				"course", a.course.Name(), "line", tok.Line, "command", tok.Name)
			return nil
		}
		a.cursor = map[string]Cursor{"N": CursorNormal, "E": CursorProfessional, "M": CursorMaster}[tok.Name]
		a.idx = a.branchStart
		return nil
	case "BRANCHEND":
		a.cursor = CursorAll
		return nil
	case "BRANCHSTART":
		cond, err := ParseBranchCondition(tok.Value)
		if err != nil {
			return a.errorf(tok, "%v", err)
		}
		a.cursor = CursorAll
		a.branchStart = a.idx
		a.lastCondition = cond
		ev = Event{Kind: EventBranchStart, Condition: cond}
	case "SECTION":
		if next, ok := a.peekCommand(); ok && next.Name == "BRANCHSTART" {
			a.cursor = CursorAll
			ev = Event{Kind: EventSection}
		} else if a.lastCondition != nil {
			cond := *a.lastCondition
			ev = Event{Kind: EventBranchStart, Condition: &cond}
		} else {
			ev = Event{Kind: EventSection}
		}
	case "LEVELHOLD":
		ev = Event{Kind: EventLevelhold}
	case "GOGOSTART":
		ev = Event{Kind: EventGogo, Flag: true}
	case "GOGOEND":
		ev = Event{Kind: EventGogo, Flag: false}
	case "BARLINEON":
		ev = Event{Kind: EventBarline, Flag: true}
	case "BARLINEOFF":
		ev = Event{Kind: EventBarline, Flag: false}
	case "BPMCHANGE", "SCROLL", "DELAY":
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return a.errorf(tok, "invalid #%s argument %q", tok.Name, tok.Value)
		}
		kind := map[string]EventKind{"BPMCHANGE": EventTempo, "SCROLL": EventScroll, "DELAY": EventDelay}[tok.Name]
		if kind == EventTempo && v <= 0 {
			return a.errorf(tok, "#BPMCHANGE must be positive, got %q", tok.Value)
		}
		ev = Event{Kind: kind, Number: v}
	case "MEASURE":
		ts, err := ParseTimeSignature(tok.Value)
		if err != nil {
			return a.errorf(tok, "%v", err)
		}
		ev = Event{Kind: EventTimeSignature, TimeSig: ts}
	default:
		a.song.log.Debug("Ignoring command", "course", a.course.ID.String(), "line", tok.Line, "command", tok.Name)
		return nil
	}

	for _, b := range a.cursor.Targets() {
		m, err := a.measure(tok, b)
		if err != nil {
			return err
		}
		e := ev
		e.Pos = len(m.Notes)
		m.Events = append(m.Events, e)
	}
	return nil
}

// peekCommand は次のコマンドトークンを返す
func (a *assembler) peekCommand() (lexer.Token, bool) {
	for j := a.i + 1; j < len(a.tokens); j++ {
		switch a.tokens[j].Type {
		case lexer.TOKEN_COMMAND:
			return a.tokens[j], true
		case lexer.TOKEN_NOTES:
			return lexer.Token{}, false
		}
	}
	return lexer.Token{}, false
}

func (a *assembler) finish() (*Chart, error) {
	chart := &Chart{
		Course:      a.course,
		BPM:         a.song.BPM,
		Offset:      a.song.Offset,
		HasBranches: a.hasBranches,
	}
	for b := range a.branches {
		measures := a.branches[b]
		if n := len(measures); n > 0 && measures[n-1].empty() {
			measures = measures[:n-1]
		}
		for i := range measures {
			measures[i].merge()
		}
		a.branches[b] = measures
	}

	if !a.hasBranches {
		chart.Branches[BranchNormal] = a.branches[BranchNormal]
		return chart, nil
	}

	n := len(a.branches[BranchNormal])
	for _, b := range []Branch{BranchProfessional, BranchMaster} {
		if len(a.branches[b]) != n {
			return nil, &ParseError{
				Course:  a.course.ID.String(),
				Measure: -1,
				Message: fmt.Sprintf("branch length mismatch: normal has %d measures, %s has %d", n, b, len(a.branches[b])),
			}
		}
	}
	chart.Branches = a.branches
	return chart, nil
}

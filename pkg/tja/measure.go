package tja

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zurustar/tja2fumen/pkg/tja/lexer"
)

// Branch は譜面分岐（普通・玄人・達人）の番号
type Branch int

const (
	BranchNormal Branch = iota
	BranchProfessional
	BranchMaster
	BranchCount
)

var branchNames = [BranchCount]string{"normal", "professional", "master"}

// String returns the branch name.
func (b Branch) String() string {
	if b >= 0 && b < BranchCount {
		return branchNames[b]
	}
	return fmt.Sprintf("Branch(%d)", int(b))
}

// EventKind はイベントの種類
type EventKind int

const (
	EventNote EventKind = iota
	EventGogo
	EventBarline
	EventDelay
	EventScroll
	EventTempo
	EventTimeSignature
	EventSection
	EventBranchStart
	EventLevelhold
)

var eventKindNames = map[EventKind]string{
	EventNote:          "note",
	EventGogo:          "gogo",
	EventBarline:       "barline",
	EventDelay:         "delay",
	EventScroll:        "scroll",
	EventTempo:         "bpm",
	EventTimeSignature: "measure",
	EventSection:       "section",
	EventBranchStart:   "branch_start",
	EventLevelhold:     "levelhold",
}

// String returns the event kind name.
func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// TimeSignature は #MEASURE の拍子
type TimeSignature struct {
	Num float64
	Den float64
}

// Ratio は4/4を1とした小節の長さ
func (ts TimeSignature) Ratio() float64 {
	return ts.Num / ts.Den
}

// ParseTimeSignature は "N/D" を解析する
func ParseTimeSignature(s string) (TimeSignature, error) {
	numStr, denStr, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found {
		return TimeSignature{}, fmt.Errorf("invalid time signature %q: expected N/D", s)
	}
	num, err := strconv.ParseFloat(strings.TrimSpace(numStr), 64)
	if err != nil {
		return TimeSignature{}, fmt.Errorf("invalid time signature numerator %q", numStr)
	}
	den, err := strconv.ParseFloat(strings.TrimSpace(denStr), 64)
	if err != nil {
		return TimeSignature{}, fmt.Errorf("invalid time signature denominator %q", denStr)
	}
	if num <= 0 || den <= 0 {
		return TimeSignature{}, fmt.Errorf("invalid time signature %q: values must be positive", s)
	}
	return TimeSignature{Num: num, Den: den}, nil
}

// ConditionType は分岐条件の種類
type ConditionType int

const (
	ConditionPercentage ConditionType = iota // p: 精度（%）
	ConditionDrumroll                        // r: 連打数
)

// BranchCondition は #BRANCHSTART の条件。
// 精度の場合 Professional/Master は 0..1 の割合、連打数の場合は回数。
type BranchCondition struct {
	Type         ConditionType
	Professional float64
	Master       float64
}

// ParseBranchCondition は "p,75,90" や "r,10,20" を解析する
func ParseBranchCondition(s string) (*BranchCondition, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid branch condition %q: expected TYPE,A,B", s)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	cond := &BranchCondition{}
	switch parts[0] {
	case "p":
		cond.Type = ConditionPercentage
	case "r":
		cond.Type = ConditionDrumroll
	default:
		return nil, fmt.Errorf("unsupported branch condition type %q", parts[0])
	}

	values := make([]float64, 2)
	for i, p := range parts[1:] {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid branch condition value %q", p)
		}
		if cond.Type == ConditionPercentage {
			v /= 100
		} else if v != float64(int(v)) {
			return nil, fmt.Errorf("drumroll branch condition must be an integer, got %q", p)
		}
		values[i] = v
	}
	cond.Professional, cond.Master = values[0], values[1]
	return cond, nil
}

// Event は小節内の位置つきイベント（ノーツまたはコマンド）。
// Pos は小節内の分割単位での位置。
type Event struct {
	Kind EventKind
	Pos  int

	Note      lexer.NoteKind   // EventNote
	Number    float64          // EventTempo(BPM), EventScroll, EventDelay(秒)
	Flag      bool             // EventGogo, EventBarline
	TimeSig   TimeSignature    // EventTimeSignature
	Condition *BranchCondition // EventBranchStart, EventSection（nilなら条件なし）
}

// IsCommand はノーツ以外のイベントかどうか
func (e Event) IsCommand() bool {
	return e.Kind != EventNote
}

// Measure は , で区切られた1小節分の生データ
type Measure struct {
	// Notes は分割ごとのノーツ（空白も含む）。len(Notes) が分割数。
	Notes []lexer.NoteKind
	// Events はコマンドイベント（出現順）
	Events []Event
	// Combined はノーツとコマンドを位置順に並べたもの。
	// 同じ位置ではコマンドが先になる。
	Combined []Event
}

// Subdivisions は小節の分割数
func (m *Measure) Subdivisions() int {
	return len(m.Notes)
}

func (m *Measure) empty() bool {
	return len(m.Notes) == 0 && len(m.Events) == 0
}

// merge はノーツとコマンドを1つの時系列にまとめる
func (m *Measure) merge() {
	var notes []Event
	for i, n := range m.Notes {
		if n != lexer.NoteBlank {
			notes = append(notes, Event{Kind: EventNote, Pos: i, Note: n})
		}
	}
	events := m.Events

	m.Combined = make([]Event, 0, len(notes)+len(events))
	for len(notes) > 0 || len(events) > 0 {
		switch {
		case len(notes) > 0 && len(events) > 0:
			if notes[0].Pos >= events[0].Pos {
				m.Combined = append(m.Combined, events[0])
				events = events[1:]
			} else {
				m.Combined = append(m.Combined, notes[0])
				notes = notes[1:]
			}
		case len(events) > 0:
			m.Combined = append(m.Combined, events[0])
			events = events[1:]
		default:
			m.Combined = append(m.Combined, notes[0])
			notes = notes[1:]
		}
	}
}

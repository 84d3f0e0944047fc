package convert

import (
	"fmt"

	"github.com/zurustar/tja2fumen/pkg/tja"
)

// Segment は分割後の（部分）小節。
// Subdivisions は元の小節の分割数で、PosStart〜PosEnd がこの区間になる。
type Segment struct {
	Tempo   float64
	Scroll  float64
	Gogo    bool
	Barline bool
	TimeSig tja.TimeSignature

	Subdivisions int
	PosStart     int
	PosEnd       int

	DelayMs     float64
	BranchStart *tja.BranchCondition
	Section     bool // 分岐精度のリセット
	Levelhold   bool

	Notes []tja.Event
}

// Ratio は元の小節に対するこの区間の長さの割合
func (s *Segment) Ratio() float64 {
	if s.Subdivisions == 0 {
		return 1
	}
	return float64(s.PosEnd-s.PosStart) / float64(s.Subdivisions)
}

// IsSubmeasure は小節の途中から始まる区間かどうか
func (s *Segment) IsSubmeasure() bool {
	return s.PosStart != 0
}

// Split は分岐ごとに小節をテンポ・スクロール・ゴーゴーの変化位置で分割する
func Split(chart *tja.Chart) ([tja.BranchCount][]Segment, error) {
	var out [tja.BranchCount][]Segment
	for b := tja.BranchNormal; b < tja.BranchCount; b++ {
		out[b] = splitBranch(chart.Branches[b], chart.BPM)
	}

	if chart.HasBranches {
		n := len(out[tja.BranchNormal])
		for _, b := range []tja.Branch{tja.BranchProfessional, tja.BranchMaster} {
			if len(out[b]) != n {
				return out, &Error{
					Course:  chart.Course.ID.String(),
					Measure: -1,
					Message: fmt.Sprintf("branch length mismatch after splitting: normal has %d measures, %s has %d", n, b, len(out[b])),
				}
			}
		}
	}
	return out, nil
}

func splitBranch(measures []tja.Measure, bpm float64) []Segment {
	var segments []Segment
	carry := Segment{
		Tempo:   bpm,
		Scroll:  1.0,
		Barline: true,
		TimeSig: tja.TimeSignature{Num: 4, Den: 4},
	}

	for _, m := range measures {
		seg := Segment{
			Tempo:        carry.Tempo,
			Scroll:       carry.Scroll,
			Gogo:         carry.Gogo,
			Barline:      carry.Barline,
			TimeSig:      carry.TimeSig,
			Subdivisions: m.Subdivisions(),
		}

		for _, ev := range m.Combined {
			switch ev.Kind {
			case tja.EventNote:
				seg.Notes = append(seg.Notes, ev)
			case tja.EventDelay:
				seg.DelayMs += ev.Number * 1000
			case tja.EventBranchStart:
				seg.BranchStart = ev.Condition
			case tja.EventSection:
				seg.Section = true
			case tja.EventLevelhold:
				seg.Levelhold = true
			case tja.EventBarline:
				carry.Barline = ev.Flag
				seg.Barline = ev.Flag
			case tja.EventTimeSignature:
				carry.TimeSig = ev.TimeSig
				seg.TimeSig = ev.TimeSig
			case tja.EventTempo, tja.EventScroll, tja.EventGogo:
				if ev.Pos != seg.PosStart {
					seg.PosEnd = ev.Pos
					segments = append(segments, seg)
					seg = Segment{
						Tempo:        carry.Tempo,
						Scroll:       carry.Scroll,
						Gogo:         carry.Gogo,
						Barline:      carry.Barline,
						TimeSig:      carry.TimeSig,
						Subdivisions: m.Subdivisions(),
						PosStart:     ev.Pos,
					}
				}
				switch ev.Kind {
				case tja.EventTempo:
					carry.Tempo, seg.Tempo = ev.Number, ev.Number
				case tja.EventScroll:
					carry.Scroll, seg.Scroll = ev.Number, ev.Number
				case tja.EventGogo:
					carry.Gogo, seg.Gogo = ev.Flag, ev.Flag
				}
			}
		}

		seg.PosEnd = m.Subdivisions()
		segments = append(segments, seg)
	}
	return segments
}

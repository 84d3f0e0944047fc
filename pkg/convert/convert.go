// Package convert compiles assembled TJA courses into fumen charts.
//
// Conversion runs in three stages: Split cuts each branch's measures at
// mid-measure tempo, scroll and gogo changes; the resolver places every
// segment and note on the millisecond timeline and encodes branch conditions;
// the header is synthesized last from the resolved note counts.
package convert

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/zurustar/tja2fumen/pkg/fumen"
	"github.com/zurustar/tja2fumen/pkg/soulgauge"
	"github.com/zurustar/tja2fumen/pkg/tja"
	"github.com/zurustar/tja2fumen/pkg/tja/lexer"
)

// GaugeTable は魂ゲージの増減量を引く表
type GaugeTable interface {
	Lookup(notes int, difficulty string, stars int) (soulgauge.Rates, bool)
}

// Converter converts assembled courses into fumen charts.
type Converter struct {
	log   *slog.Logger
	gauge GaugeTable
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Converter) {
		c.log = log
	}
}

// WithSoulGauge sets the soul gauge table used for the header HP fields.
func WithSoulGauge(t GaugeTable) Option {
	return func(c *Converter) {
		c.gauge = t
	}
}

// New creates a new Converter.
func New(opts ...Option) *Converter {
	c := &Converter{log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// tjaで使うノーツ文字からフーメンの種別への対応
var noteTypes = map[lexer.NoteKind]fumen.NoteType{
	lexer.NoteDon:         fumen.NoteDon,
	lexer.NoteKa:          fumen.NoteKa,
	lexer.NoteDonBig:      fumen.NoteDonBig,
	lexer.NoteKaBig:       fumen.NoteKaBig,
	lexer.NoteDrumroll:    fumen.NoteDrumroll,
	lexer.NoteDrumrollBig: fumen.NoteDrumrollBig,
	lexer.NoteBalloon:     fumen.NoteBalloon,
	lexer.NoteKusudama:    fumen.NoteKusudama,
	lexer.NoteDonHand:     fumen.NoteDonBigHand,
	lexer.NoteKaHand:      fumen.NoteKaBigHand,
}

// levelholdSentinels は #LEVELHOLD 後の分岐条件（強制的に現在の分岐に留まる）
var levelholdSentinels = [tja.BranchCount][2]int32{
	tja.BranchNormal:       {999, 999},
	tja.BranchProfessional: {0, 999},
	tja.BranchMaster:       {0, 0},
}

// FullMeasureMs は4/4の1小節の長さ（ミリ秒）
func FullMeasureMs(bpm float64) float64 {
	return 4 * 60000 / bpm
}

// Convert は1コースをフーメンに変換する
func (c *Converter) Convert(chart *tja.Chart) (*fumen.Chart, error) {
	segments, err := Split(chart)
	if err != nil {
		return nil, err
	}

	n := len(segments[tja.BranchNormal])
	out := &fumen.Chart{
		Header:   fumen.DefaultHeader(),
		Measures: make([]fumen.Measure, n),
	}
	for i := range out.Measures {
		out.Measures[i] = *fumen.NewMeasure()
	}

	branches := []tja.Branch{tja.BranchNormal}
	if chart.HasBranches {
		branches = []tja.Branch{tja.BranchNormal, tja.BranchProfessional, tja.BranchMaster}
	}

	var stats [tja.BranchCount]branchStats
	for _, b := range branches {
		r := &resolver{
			conv:     c,
			chart:    chart,
			branch:   b,
			out:      out,
			balloons: append([]int(nil), chart.Course.Balloons[b]...),
		}
		if err := r.run(segments[b]); err != nil {
			return nil, err
		}
		stats[b] = r.stats
	}

	c.synthesizeHeader(out, chart, stats)
	c.log.Debug("Converted course",
		"course", chart.Course.ID.String(),
		"measures", len(out.Measures),
		"notes", out.NoteCount(fumen.BranchNormal),
		"branched", chart.HasBranches)
	return out, nil
}

// branchStats は分岐ごとの集計値
type branchStats struct {
	hits       int // ドン・カッ系ノーツ数
	conditions []tja.ConditionType
}

// openRoll は終端待ちの連打・風船
type openRoll struct {
	measure  int
	index    int
	pos      float64
	duration float64
	multi    bool
}

type resolver struct {
	conv   *Converter
	chart  *tja.Chart
	branch tja.Branch
	out    *fumen.Chart

	balloons  []int
	counter   float64 // 直近の分岐条件以降の精度カウント
	levelhold bool
	roll      *openRoll
	stats     branchStats
}

func (r *resolver) errorf(measure int, format string, args ...any) error {
	return &Error{
		Course:  r.chart.Course.ID.String(),
		Branch:  r.branch.String(),
		Measure: measure,
		Message: fmt.Sprintf(format, args...),
	}
}

func (r *resolver) run(segments []Segment) error {
	fb := fumen.BranchIndex(r.branch)
	for i := range segments {
		seg := &segments[i]
		m := &r.out.Measures[i]
		duration := FullMeasureMs(seg.Tempo) * seg.TimeSig.Ratio() * seg.Ratio()

		// 小節全体の値は普通譜面で決める
		if r.branch == tja.BranchNormal {
			prevTempo := seg.Tempo
			if i > 0 {
				prevTempo = segments[i-1].Tempo
			}
			r.placeMeasure(i, seg, prevTempo, duration)
		}

		br := &m.Branches[fb]
		br.Speed = float32(seg.Scroll)

		if seg.Levelhold {
			r.levelhold = true
		}
		if seg.BranchStart != nil {
			r.assignCondition(i, seg.BranchStart)
		}
		if seg.BranchStart != nil || seg.Section {
			r.counter = 0
		}

		if err := r.placeNotes(i, seg, duration); err != nil {
			return err
		}
		br.Length = uint16(len(br.Notes))

		if r.roll != nil {
			if !r.roll.multi {
				r.roll.duration += duration - r.roll.pos
				r.roll.multi = true
			} else {
				r.roll.duration += duration
			}
		}
	}

	if r.roll != nil {
		r.conv.log.Warn("Roll is never closed",
			"course", r.chart.Course.ID.String(), "branch", r.branch.String(), "measure", r.roll.measure)
		r.closeRoll()
	}
	return nil
}

// placeMeasure は小節の開始時刻・長さ・BPM・ゴーゴー・小節線を決める
func (r *resolver) placeMeasure(i int, seg *Segment, prevTempo, duration float64) {
	m := &r.out.Measures[i]
	var start float64
	if i == 0 {
		start = -r.chart.Offset*1000 - FullMeasureMs(seg.Tempo)
	} else {
		start = r.out.Measures[i-1].OffsetEnd + seg.DelayMs + FullMeasureMs(prevTempo) - FullMeasureMs(seg.Tempo)
	}

	m.BPM = float32(seg.Tempo)
	m.OffsetStart = float32(start)
	m.Duration = duration
	m.OffsetEnd = float64(m.OffsetStart) + duration
	m.Gogo = seg.Gogo
	m.Barline = seg.Barline && !seg.IsSubmeasure()
}

// assignCondition は分岐条件を直前の小節の分岐情報に書き込む
func (r *resolver) assignCondition(i int, cond *tja.BranchCondition) {
	r.stats.conditions = append(r.stats.conditions, cond.Type)

	var vals [2]int32
	switch {
	case r.levelhold:
		vals = levelholdSentinels[r.branch]
	case cond.Type == tja.ConditionDrumroll:
		vals = [2]int32{int32(cond.Professional), int32(cond.Master)}
	default:
		vals = [2]int32{r.threshold(cond.Professional), r.threshold(cond.Master)}
	}

	target := i - 1
	if target < 0 {
		target = 0
	}
	info := &r.out.Measures[target].BranchInfo
	info[2*r.branch] = vals[0]
	info[2*r.branch+1] = vals[1]
}

func (r *resolver) threshold(pct float64) int32 {
	switch {
	case pct > 1:
		return 999
	case pct <= 0:
		return 0
	}
	return int32(math.Round(r.counter * pct))
}

func (r *resolver) placeNotes(i int, seg *Segment, duration float64) error {
	br := &r.out.Measures[i].Branches[fumen.BranchIndex(r.branch)]
	span := seg.PosEnd - seg.PosStart

	for _, ev := range seg.Notes {
		pos := 0.0
		if span > 0 {
			pos = duration * float64(ev.Pos-seg.PosStart) / float64(span)
		}

		switch {
		case ev.Note == lexer.NoteEndRoll:
			if r.roll == nil {
				r.conv.log.Debug("Ignoring roll end without an open roll",
					"course", r.chart.Course.ID.String(), "branch", r.branch.String(), "measure", i)
				continue
			}
			if r.roll.multi {
				r.roll.duration += pos
			} else {
				r.roll.duration += pos - r.roll.pos
			}
			r.closeRoll()
			continue
		case ev.Note == lexer.NoteKusudama && r.roll != nil:
			r.conv.log.Debug("Skipping kusudama while another roll is open",
				"course", r.chart.Course.ID.String(), "branch", r.branch.String(), "measure", i)
			continue
		}

		typ, ok := noteTypes[ev.Note]
		if !ok {
			continue
		}
		note := fumen.Note{Type: typ, Pos: float32(pos)}

		switch {
		case ev.Note.IsBalloon():
			if len(r.balloons) == 0 {
				return r.errorf(i, "not enough balloon hit counts for %s", ev.Note)
			}
			if r.balloons[0] < 0 || r.balloons[0] > math.MaxUint16 {
				return r.errorf(i, "balloon hit count %d out of range", r.balloons[0])
			}
			note.Hits = uint16(r.balloons[0])
			r.balloons = r.balloons[1:]
			r.counter += 1.5
		default:
			init, diff := r.chart.Course.ScoreInit, r.chart.Course.ScoreDiff
			if init < 0 || init > math.MaxUint16 || diff < 0 || diff > math.MaxUint16 {
				return r.errorf(i, "SCOREINIT/SCOREDIFF out of range: %d/%d", init, diff)
			}
			note.ScoreInit = uint16(init)
			note.ScoreDiff = uint16(diff)
			if ev.Note.IsHit() {
				r.counter++
				r.stats.hits++
			}
		}

		br.Notes = append(br.Notes, note)
		if ev.Note.IsRollStart() {
			r.roll = &openRoll{measure: i, index: len(br.Notes) - 1, pos: pos}
		}
	}
	return nil
}

// closeRoll は連打の長さを整数ミリ秒に切り捨てて書き込む
func (r *resolver) closeRoll() {
	note := &r.out.Measures[r.roll.measure].Branches[fumen.BranchIndex(r.branch)].Notes[r.roll.index]
	note.Duration = float32(math.Trunc(r.roll.duration))
	note.MultiMeasure = r.roll.multi
	r.roll = nil
}

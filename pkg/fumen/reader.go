package fumen

import (
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/pkg/errors"
)

// Option は読み込み時のオプション
type Option func(*decoder)

// WithLogger はヘッダ検査の警告などを出力するロガーを指定する
func WithLogger(log *slog.Logger) Option {
	return func(d *decoder) {
		d.log = log
	}
}

type decoder struct {
	data      []byte
	off       int
	bo        binary.ByteOrder
	truncated bool
	log       *slog.Logger
}

// take は次の n バイトを返す。データが足りない部分は0で埋める。
func (d *decoder) take(n int) []byte {
	end := d.off + n
	if end <= len(d.data) {
		b := d.data[d.off:end]
		d.off = end
		return b
	}
	b := make([]byte, n)
	if d.off < len(d.data) {
		copy(b, d.data[d.off:])
	}
	d.off = end
	d.truncated = true
	return b
}

func (d *decoder) exhausted() bool {
	return d.off >= len(d.data)
}

// ReadFile はファイルからフーメンを読み込む
func ReadFile(path string, opts ...Option) (*Chart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read fumen %s", path)
	}
	chart, err := Parse(data, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "parse fumen %s", path)
	}
	return chart, nil
}

// Read は r の内容をすべて読み込んでフーメンとして解釈する
func Read(r io.Reader, opts ...Option) (*Chart, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read fumen")
	}
	return Parse(data, opts...)
}

// Parse はバイト列をフーメンとして解釈する。
//
// 末尾が欠けたファイル（実在する壊れたサンプルがある）は0埋めして読み進め、
// データが尽きた時点で打ち切る。これはエラーにならない。
// 対応表にないノーツ種別コードは *FormatError を返す。
func Parse(data []byte, opts ...Option) (*Chart, error) {
	d := &decoder{data: data, log: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}

	raw := d.take(HeaderSize)
	order := DetectByteOrder(raw)
	d.bo = order.order()

	chart := &Chart{Header: decodeHeader(raw, order)}
	for _, a := range chart.Header.Check() {
		d.log.Warn("Unexpected fumen header value", "field", a.Field, "offset", a.Offset, "value", a.Value)
	}

	for idx := 0; idx < int(chart.Header.MeasureCount) && !d.exhausted(); idx++ {
		m, err := d.readMeasure(idx)
		if err != nil {
			return nil, err
		}
		chart.Measures = append(chart.Measures, *m)
	}

	if d.truncated || len(chart.Measures) < int(chart.Header.MeasureCount) {
		d.log.Debug("Fumen data ended early", "measures", len(chart.Measures), "expected", chart.Header.MeasureCount)
	}

	DeriveTiming(chart.Measures)
	return chart, nil
}

func (d *decoder) readMeasure(idx int) (*Measure, error) {
	rec := d.take(MeasureSize)
	m := &Measure{
		BPM:         math.Float32frombits(d.bo.Uint32(rec[0:])),
		OffsetStart: math.Float32frombits(d.bo.Uint32(rec[4:])),
		gogoRaw:     rec[8],
		barlineRaw:  rec[9],
		Padding1:    d.bo.Uint16(rec[10:]),
		Padding2:    int32(d.bo.Uint32(rec[36:])),
	}
	m.Gogo = m.gogoRaw != 0
	m.Barline = m.barlineRaw != 0
	for i := range m.BranchInfo {
		m.BranchInfo[i] = int32(d.bo.Uint32(rec[12+4*i:]))
	}

	for _, b := range Branches() {
		if d.exhausted() {
			break
		}
		rec := d.take(BranchSize)
		branch := &m.Branches[b]
		branch.Length = d.bo.Uint16(rec[0:])
		branch.Padding = d.bo.Uint16(rec[2:])
		branch.Speed = math.Float32frombits(d.bo.Uint32(rec[4:]))

		for n := 0; n < int(branch.Length) && !d.exhausted(); n++ {
			note, err := d.readNote(idx, b, n)
			if err != nil {
				return nil, err
			}
			if note == nil {
				break
			}
			branch.Notes = append(branch.Notes, *note)
		}
	}
	return m, nil
}

// readNote は1ノーツを読む。種別コードの途中でデータが尽きた場合は nil を返す。
func (d *decoder) readNote(measure int, b BranchIndex, n int) (*Note, error) {
	start := d.off
	if len(d.data)-start < 4 {
		d.off = len(d.data)
		d.truncated = true
		return nil, nil
	}
	rec := d.take(NoteSize)
	note := &Note{
		Type:     NoteType(int32(d.bo.Uint32(rec[0:]))),
		Pos:      math.Float32frombits(d.bo.Uint32(rec[4:])),
		Item:     int32(d.bo.Uint32(rec[8:])),
		Padding:  math.Float32frombits(d.bo.Uint32(rec[12:])),
		Duration: math.Float32frombits(d.bo.Uint32(rec[20:])),
	}
	if !note.Type.Known() {
		return nil, &FormatError{
			Offset:  start,
			Measure: measure,
			Branch:  b,
			Note:    n,
			Message: "unknown note type " + note.Type.String(),
		}
	}
	if note.Type.IsBalloon() {
		note.Hits = d.bo.Uint16(rec[16:])
		note.HitsPadding = d.bo.Uint16(rec[18:])
	} else {
		note.ScoreInit = d.bo.Uint16(rec[16:])
		note.ScoreDiff = d.bo.Uint16(rec[18:])
	}
	if note.Type.HasTrailer() {
		copy(note.Trailer[:], d.take(NoteTrailerSize))
	}
	return note, nil
}

// DeriveTiming はバイナリに保存されない OffsetEnd と Duration を補完する。
// 次の小節の開始位置からテンポ変化の補正を取り除いて求めるため、
// DELAY による空白は直前の小節の長さに含まれる。
func DeriveTiming(measures []Measure) {
	for i := range measures {
		m := &measures[i]
		if i+1 < len(measures) {
			next := &measures[i+1]
			end := float64(next.OffsetStart) - fullMeasure(m.BPM) + fullMeasure(next.BPM)
			m.Duration = end - float64(m.OffsetStart)
		} else {
			m.Duration = fullMeasure(m.BPM)
		}
		m.OffsetEnd = float64(m.OffsetStart) + m.Duration
	}
}

// fullMeasure は4/4拍子1小節のミリ秒
func fullMeasure(bpm float32) float64 {
	if bpm <= 0 {
		return 0
	}
	return 4 * 60000 / float64(bpm)
}

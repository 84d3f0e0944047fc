package fumen

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// MarshalBinary はフーメンをバイト列に変換する。
// 分岐ヘッダの Length は Notes の数から書き出す。
func (c *Chart) MarshalBinary() ([]byte, error) {
	size := HeaderSize + len(c.Measures)*(MeasureSize+int(BranchCount)*BranchSize)
	buf := make([]byte, 0, size)
	buf = appendHeader(buf, &c.Header)

	ao := c.Header.Order.appender()
	for idx := range c.Measures {
		m := &c.Measures[idx]
		buf = ao.AppendUint32(buf, math.Float32bits(m.BPM))
		buf = ao.AppendUint32(buf, math.Float32bits(m.OffsetStart))
		buf = append(buf, boolByte(m.gogoRaw, m.Gogo), boolByte(m.barlineRaw, m.Barline))
		buf = ao.AppendUint16(buf, m.Padding1)
		for _, v := range m.BranchInfo {
			buf = ao.AppendUint32(buf, uint32(v))
		}
		buf = ao.AppendUint32(buf, uint32(m.Padding2))

		for _, b := range Branches() {
			branch := &m.Branches[b]
			if len(branch.Notes) > math.MaxUint16 {
				return nil, &FormatError{
					Offset:  len(buf),
					Measure: idx,
					Branch:  b,
					Note:    len(branch.Notes),
					Message: "too many notes in branch",
				}
			}
			buf = ao.AppendUint16(buf, uint16(len(branch.Notes)))
			buf = ao.AppendUint16(buf, branch.Padding)
			buf = ao.AppendUint32(buf, math.Float32bits(branch.Speed))

			for n := range branch.Notes {
				note := &branch.Notes[n]
				if !note.Type.Known() {
					return nil, &FormatError{
						Offset:  len(buf),
						Measure: idx,
						Branch:  b,
						Note:    n,
						Message: "unknown note type " + note.Type.String(),
					}
				}
				buf = ao.AppendUint32(buf, uint32(note.Type))
				buf = ao.AppendUint32(buf, math.Float32bits(note.Pos))
				buf = ao.AppendUint32(buf, uint32(note.Item))
				buf = ao.AppendUint32(buf, math.Float32bits(note.Padding))
				if note.Type.IsBalloon() {
					buf = ao.AppendUint16(buf, note.Hits)
					buf = ao.AppendUint16(buf, note.HitsPadding)
				} else {
					buf = ao.AppendUint16(buf, note.ScoreInit)
					buf = ao.AppendUint16(buf, note.ScoreDiff)
				}
				buf = ao.AppendUint32(buf, math.Float32bits(note.Duration))
				if note.Type.HasTrailer() {
					buf = append(buf, note.Trailer[:]...)
				}
			}
		}
	}
	return buf, nil
}

// WriteTo はフーメンを w に書き出す
func (c *Chart) WriteTo(w io.Writer) (int64, error) {
	data, err := c.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	if err != nil {
		return int64(n), errors.Wrap(err, "write fumen")
	}
	return int64(n), nil
}

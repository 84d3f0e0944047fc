package convert

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// プロパティ: 時刻の単調性
// 各小節の終了時刻は開始時刻＋長さに等しく、テンポ一定・ディレイなしなら
// 開始時刻は減少しない
func TestProperty_TimingMonotonicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("offsetEnd == offsetStart + duration", prop.ForAll(
		func(bpm, changeTo, measures, width int) bool {
			var body strings.Builder
			for i := 0; i < measures; i++ {
				row := strings.Repeat("1", width)
				if i%2 == 1 && width > 1 {
					// 小節の途中でテンポを変える
					fmt.Fprintf(&body, "%s\n#BPMCHANGE %d\n%s,\n", row[:width/2], changeTo, row[width/2:])
				} else {
					body.WriteString(row + ",\n")
				}
			}
			out, err := compile(fmt.Sprintf("BPM:%d\n#START\n%s#END\n", bpm, body.String()))
			if err != nil {
				return false
			}
			for _, m := range out.Measures {
				if m.OffsetEnd != float64(m.OffsetStart)+m.Duration {
					return false
				}
			}
			return true
		},
		gen.IntRange(60, 300),
		gen.IntRange(60, 300),
		gen.IntRange(1, 8),
		gen.IntRange(1, 16),
	))

	properties.Property("constant tempo keeps offsets non-decreasing", prop.ForAll(
		func(bpm, measures, width int) bool {
			body := strings.Repeat(strings.Repeat("1", width)+",\n", measures)
			out, err := compile(fmt.Sprintf("BPM:%d\nOFFSET:0.5\n#START\n%s#END\n", bpm, body))
			if err != nil || len(out.Measures) != measures {
				return false
			}
			for i := 1; i < len(out.Measures); i++ {
				if out.Measures[i].OffsetStart < out.Measures[i-1].OffsetStart {
					return false
				}
			}
			return true
		},
		gen.IntRange(30, 400),
		gen.IntRange(1, 10),
		gen.IntRange(1, 32),
	))

	properties.TestingRun(t)
}

// プロパティ: 連打の長さ
// 1小節内の位置0から位置Pまでの連打の長さは fullMeasureMs(T) * P / 分割数
func TestProperty_RollDuration(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("roll duration matches its width", prop.ForAll(
		func(bpm, subdivisions, end int) bool {
			if end >= subdivisions {
				end = subdivisions - 1
			}
			row := []byte(strings.Repeat("0", subdivisions))
			row[0] = '5'
			row[end] = '8'
			out, err := compile(fmt.Sprintf("BPM:%d\n#START\n%s,\n#END\n", bpm, row))
			if err != nil {
				return false
			}
			notes := out.Measures[0].Branches[0].Notes
			if len(notes) != 1 {
				return false
			}
			want := FullMeasureMs(float64(bpm)) * float64(end) / float64(subdivisions)
			return math.Abs(float64(notes[0].Duration)-want) < 1
		},
		gen.IntRange(60, 300),
		gen.IntRange(2, 48),
		gen.IntRange(1, 47),
	))

	properties.TestingRun(t)
}

package convert

import (
	"testing"

	"github.com/zurustar/tja2fumen/pkg/tja"
)

func assembleOni(t *testing.T, body string) *tja.Chart {
	t.Helper()
	song, err := tja.Parse(course("", body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	chart, err := song.Assemble(song.Courses[0])
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return chart
}

func TestSplit(t *testing.T) {
	chart := assembleOni(t, "1\n#SCROLL 2\n1\n#GOGOSTART\n#BPMCHANGE 150\n11,\n#GOGOEND\n1,")
	segments, err := Split(chart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	segs := segments[tja.BranchNormal]
	if len(segs) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(segs))
	}

	tests := []struct {
		start, end int
		tempo      float64
		scroll     float64
		gogo       bool
		notes      int
	}{
		{0, 1, 120, 1, false, 1},
		{1, 2, 120, 2, false, 1},
		// 同じ位置の2つ目の変更は分割しない
		{2, 4, 150, 2, true, 2},
		{0, 1, 150, 2, false, 1},
	}
	for i, tt := range tests {
		s := segs[i]
		if s.PosStart != tt.start || s.PosEnd != tt.end {
			t.Errorf("segment %d: expected range %d-%d, got %d-%d", i, tt.start, tt.end, s.PosStart, s.PosEnd)
		}
		if s.Tempo != tt.tempo || s.Scroll != tt.scroll || s.Gogo != tt.gogo {
			t.Errorf("segment %d: unexpected state %+v", i, s)
		}
		if len(s.Notes) != tt.notes {
			t.Errorf("segment %d: expected %d notes, got %d", i, tt.notes, len(s.Notes))
		}
	}

	// 分割後も元の小節の分割数を保つ
	if segs[2].Subdivisions != 4 || segs[2].Ratio() != 0.5 {
		t.Errorf("unexpected subdivisions %d ratio %v", segs[2].Subdivisions, segs[2].Ratio())
	}
	if !segs[1].IsSubmeasure() || segs[3].IsSubmeasure() {
		t.Error("unexpected sub-measure flags")
	}
}

func TestSplit_MeasureLevelCommands(t *testing.T) {
	chart := assembleOni(t, "1\n#DELAY 1.5\n#MEASURE 6/8\n#BARLINEOFF\n1,\n1,")
	segments, err := Split(chart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	segs := segments[tja.BranchNormal]
	if len(segs) != 2 {
		t.Fatalf("measure-level commands must not split, got %d segments", len(segs))
	}
	if segs[0].DelayMs != 1500 || segs[0].Barline || segs[0].TimeSig.Ratio() != 0.75 {
		t.Errorf("unexpected first segment %+v", segs[0])
	}
	if segs[1].DelayMs != 0 || segs[1].Barline || segs[1].TimeSig.Num != 6 {
		t.Errorf("state must carry into the next measure: %+v", segs[1])
	}
}

func TestSplit_DelaysAccumulate(t *testing.T) {
	chart := assembleOni(t, "#DELAY 0.5\n1\n#DELAY 0.25\n1,")
	segments, err := Split(chart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	segs := segments[tja.BranchNormal]
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].DelayMs != 750 {
		t.Errorf("expected delay 750ms, got %v", segs[0].DelayMs)
	}
}

func TestSegment_RatioEmptyMeasure(t *testing.T) {
	s := Segment{}
	if s.Ratio() != 1 {
		t.Errorf("expected ratio 1 for an empty measure, got %v", s.Ratio())
	}
}

package tja

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		input string
		want  Difficulty
	}{
		{"0", DifficultyEasy},
		{"Easy", DifficultyEasy},
		{"1", DifficultyNormal},
		{"normal", DifficultyNormal},
		{"2", DifficultyHard},
		{"HARD", DifficultyHard},
		{"3", DifficultyOni},
		{"Oni", DifficultyOni},
		{"4", DifficultyUra},
		{"Ura", DifficultyUra},
		{"Edit", DifficultyUra},
		{" oni ", DifficultyOni},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDifficulty(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	if _, err := ParseDifficulty("5"); err == nil {
		t.Error("expected error for unknown course")
	}
}

func TestCourseID_String(t *testing.T) {
	if s := (CourseID{Difficulty: DifficultyOni}).String(); s != "Oni" {
		t.Errorf("expected Oni, got %s", s)
	}
	if s := (CourseID{Difficulty: DifficultyHard, Player: PlayerTwo}).String(); s != "HardP2" {
		t.Errorf("expected HardP2, got %s", s)
	}
}

func TestParse_Metadata(t *testing.T) {
	src := `TITLE:Song
SUBTITLE:--Artist
BPM:150.5
OFFSET:-1.25
WAVE:song.ogg
DEMOSTART:12.5

COURSE:Hard
LEVEL:7
SCOREINIT:400,1200
SCOREDIFF:100
BALLOON:5,10,

#START
1111,
#END

COURSE:Oni
LEVEL:9
BALLOON:20
BALLOONMAS:30,40
#START
2222,
#END
`
	song, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if song.Title != "Song" || song.Subtitle != "--Artist" || song.Wave != "song.ogg" {
		t.Errorf("unexpected text metadata: %+v", song)
	}
	if song.BPM != 150.5 || song.Offset != -1.25 || song.DemoStart != 12.5 {
		t.Errorf("unexpected numeric metadata: bpm=%v offset=%v demo=%v", song.BPM, song.Offset, song.DemoStart)
	}
	if len(song.Courses) != 2 {
		t.Fatalf("expected 2 courses, got %d", len(song.Courses))
	}

	hard := song.Course(CourseID{Difficulty: DifficultyHard})
	if hard == nil {
		t.Fatal("Hard course not found")
	}
	if hard.Level != 7 || hard.ScoreInit != 1200 || hard.ScoreDiff != 100 {
		t.Errorf("unexpected Hard metadata: %+v", hard)
	}
	for b := BranchNormal; b < BranchCount; b++ {
		if !reflect.DeepEqual(hard.Balloons[b], []int{5, 10}) {
			t.Errorf("%s balloons: expected [5 10], got %v", b, hard.Balloons[b])
		}
	}

	oni := song.Course(CourseID{Difficulty: DifficultyOni})
	if oni == nil {
		t.Fatal("Oni course not found")
	}
	if !reflect.DeepEqual(oni.Balloons[BranchNormal], []int{20}) {
		t.Errorf("normal balloons: expected [20], got %v", oni.Balloons[BranchNormal])
	}
	if !reflect.DeepEqual(oni.Balloons[BranchMaster], []int{30, 40}) {
		t.Errorf("master balloons: expected [30 40], got %v", oni.Balloons[BranchMaster])
	}
}

func TestParse_DefaultCourseIsOni(t *testing.T) {
	song, err := Parse("BPM:120\n#START\n1,\n#END\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(song.Courses) != 1 || song.Courses[0].ID != (CourseID{Difficulty: DifficultyOni}) {
		t.Fatalf("expected a single Oni course, got %+v", song.Courses)
	}
}

func TestParse_DoubleStyle(t *testing.T) {
	src := `BPM:120
COURSE:Oni
LEVEL:10
BALLOON:4
STYLE:Double
#START P1
1,
#END
#START P2
2,
#END
`
	song, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	for _, c := range song.Courses {
		ids = append(ids, c.ID.String())
	}
	// Oni にはノーツがないので P1 の譜面で補われる
	want := []string{"Oni", "OniP1", "OniP2"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("expected courses %v, got %v", want, ids)
	}

	p2 := song.Course(CourseID{Difficulty: DifficultyOni, Player: PlayerTwo})
	if p2.Level != 10 || !reflect.DeepEqual(p2.Balloons[BranchNormal], []int{4}) {
		t.Errorf("P2 must inherit metadata, got %+v", p2)
	}

	single := song.Course(CourseID{Difficulty: DifficultyOni})
	chart, err := song.Assemble(single)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if got := chart.Branches[BranchNormal][0].Notes; !reflect.DeepEqual(got, p1Notes(t, song)) {
		t.Errorf("single course must copy P1 notes, got %v", got)
	}
}

func p1Notes(t *testing.T, song *Song) any {
	t.Helper()
	chart, err := song.Assemble(song.Course(CourseID{Difficulty: DifficultyOni, Player: PlayerOne}))
	if err != nil {
		t.Fatalf("assemble P1: %v", err)
	}
	return chart.Branches[BranchNormal][0].Notes
}

func TestCourse_CloneForPlayer(t *testing.T) {
	c := &Course{ID: CourseID{Difficulty: DifficultyHard}, Level: 5}
	c.Balloons[BranchNormal] = []int{1, 2}

	clone := c.CloneForPlayer(PlayerOne)
	clone.Balloons[BranchNormal][0] = 99
	clone.Level = 1

	if c.Balloons[BranchNormal][0] != 1 || c.Level != 5 {
		t.Error("clone must not share state with the original")
	}
	if clone.ID.Player != PlayerOne || clone.ID.Difficulty != DifficultyHard {
		t.Errorf("unexpected clone id %v", clone.ID)
	}
}

func TestParse_DropsCoursesWithoutNotes(t *testing.T) {
	song, err := Parse("BPM:120\nCOURSE:Easy\nLEVEL:1\nCOURSE:Oni\n#START\n1,\n#END\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(song.Courses) != 1 || song.Courses[0].ID.Difficulty != DifficultyOni {
		t.Errorf("expected only Oni, got %+v", song.Courses)
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("BPM:fast\n#START\n1,\n#END\n")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if perr.Line != 1 || perr.Context == "" {
		t.Errorf("unexpected error location: %+v", perr)
	}
}

func TestParse_CourseErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		course string
		line   int
	}{
		{"bad level", "COURSE:Oni\nLEVEL:ten\n#START\n1,\n#END\n", "Oni", 7},
		{"bad scoreinit", "COURSE:Oni\nSCOREINIT:x\n#START\n1,\n#END\n", "Oni", 7},
		{"bad balloon", "COURSE:Oni\nBALLOON:1,x\n#START\n7,\n#END\n", "Oni", 7},
		{"unknown course", "COURSE:Extreme\n#START\n1,\n#END\n", "Extreme", 6},
		{"bad start", "COURSE:Hard\n#START P3\n1,\n#END\n", "HardP3", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 正しいコースの後に誤りのあるコースを置く
			src := "BPM:120\nCOURSE:Easy\n#START\n1,\n#END\n" + tt.src
			song, err := Parse(src)
			if err != nil {
				t.Fatalf("course errors must not fail the whole file: %v", err)
			}

			easy := song.Course(CourseID{Difficulty: DifficultyEasy})
			if easy == nil || easy.Err() != nil {
				t.Fatalf("the valid course must survive, got %+v", easy)
			}
			if _, err := song.Assemble(easy); err != nil {
				t.Errorf("the valid course must assemble: %v", err)
			}

			var bad *Course
			for _, c := range song.Courses {
				if c.Err() != nil {
					bad = c
				}
			}
			if bad == nil {
				t.Fatal("expected a course carrying the error")
			}
			if bad.Name() != tt.course {
				t.Errorf("expected course %s, got %s", tt.course, bad.Name())
			}

			_, err = song.Assemble(bad)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError from Assemble, got %v", err)
			}
			if perr.Course != tt.course {
				t.Errorf("error must be labelled with %s, got %q", tt.course, perr.Course)
			}
			if perr.Line != tt.line || perr.Context == "" {
				t.Errorf("unexpected error location: line %d", perr.Line)
			}
		})
	}
}

func TestParse_MissingBPM(t *testing.T) {
	if _, err := Parse("#START\n1,\n#END\n"); err == nil {
		t.Error("expected error when BPM is missing")
	}
}

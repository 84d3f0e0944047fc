package lexer

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantType  TokenType
		wantName  string
		wantValue string
	}{
		{"comment", "// hello", TOKEN_COMMENT, "", "hello"},
		{"header", "BPM:120", TOKEN_HEADER, "BPM", "120"},
		{"header with spaces", "TITLE: Some Song ", TOKEN_HEADER, "TITLE", "Some Song"},
		{"header with digits", "BALLOONNOR:5,6", TOKEN_HEADER, "BALLOONNOR", "5,6"},
		{"header value with colon", "SUBTITLE:--a:b", TOKEN_HEADER, "SUBTITLE", "--a:b"},
		{"command without args", "#GOGOSTART", TOKEN_COMMAND, "GOGOSTART", ""},
		{"command with args", "#BPMCHANGE 180.5", TOKEN_COMMAND, "BPMCHANGE", "180.5"},
		{"command with tab", "#MEASURE\t3/4", TOKEN_COMMAND, "MEASURE", "3/4"},
		{"branch selector", "#N", TOKEN_COMMAND, "N", ""},
		{"start player", "#START P2", TOKEN_COMMAND, "START", "P2"},
		{"command trailing comment", "#SCROLL 2 // fast", TOKEN_COMMAND, "SCROLL", "2"},
		{"notes with terminator", "10201020,", TOKEN_NOTES, "", "10201020,"},
		{"notes without terminator", "1020", TOKEN_NOTES, "", "1020"},
		{"terminator only", ",", TOKEN_NOTES, "", ","},
		{"notes with hand codes", "A0B0", TOKEN_NOTES, "", "A0B0"},
		{"notes with spaces", "1 0 2 0,", TOKEN_NOTES, "", "1020,"},
		{"notes with comment", "1111, // end", TOKEN_NOTES, "", "1111,"},
		{"lowercase command", "#gogostart", TOKEN_ILLEGAL, "", ""},
		{"lowercase header", "title:x", TOKEN_ILLEGAL, "", ""},
		{"garbage", "?!?", TOKEN_ILLEGAL, "", ""},
		{"word", "ENDING", TOKEN_ILLEGAL, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := Classify(tt.input, 7)
			if tok.Type != tt.wantType {
				t.Fatalf("expected type %s, got %s", tt.wantType, tok.Type)
			}
			if tok.Name != tt.wantName {
				t.Errorf("expected name %q, got %q", tt.wantName, tok.Name)
			}
			if tok.Value != tt.wantValue {
				t.Errorf("expected value %q, got %q", tt.wantValue, tok.Value)
			}
			if tok.Line != 7 {
				t.Errorf("expected line 7, got %d", tok.Line)
			}
		})
	}
}

func TestLexer_Tokens(t *testing.T) {
	input := "\uFEFFTITLE:Test\r\n\r\nBPM:120\n#START\n1111,\n\n#END\n"
	tokens := New(input).Tokens()

	want := []struct {
		typ  TokenType
		line int
	}{
		{TOKEN_HEADER, 1},
		{TOKEN_HEADER, 3},
		{TOKEN_COMMAND, 4},
		{TOKEN_NOTES, 5},
		{TOKEN_COMMAND, 7},
	}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(want), len(tokens), tokens)
	}
	for i, w := range want {
		if tokens[i].Type != w.typ || tokens[i].Line != w.line {
			t.Errorf("token %d: expected %s at line %d, got %s at line %d",
				i, w.typ, w.line, tokens[i].Type, tokens[i].Line)
		}
	}
	if tokens[0].Name != "TITLE" {
		t.Errorf("BOM must be stripped, got name %q", tokens[0].Name)
	}
}

func TestLexer_EOF(t *testing.T) {
	l := New("")
	if tok := l.NextToken(); tok.Type != TOKEN_EOF {
		t.Errorf("expected EOF, got %s", tok.Type)
	}
}

func TestLookupNote(t *testing.T) {
	tests := []struct {
		ch   rune
		want NoteKind
	}{
		{'0', NoteBlank},
		{'1', NoteDon},
		{'2', NoteKa},
		{'3', NoteDonBig},
		{'4', NoteKaBig},
		{'5', NoteDrumroll},
		{'6', NoteDrumrollBig},
		{'7', NoteBalloon},
		{'8', NoteEndRoll},
		{'9', NoteKusudama},
		{'A', NoteDonHand},
		{'B', NoteKaHand},
		{'C', NoteBlank},
		{'x', NoteBlank},
	}
	for _, tt := range tests {
		if got := LookupNote(tt.ch); got != tt.want {
			t.Errorf("LookupNote(%q) = %s, want %s", tt.ch, got, tt.want)
		}
	}
}

func TestNoteKindPredicates(t *testing.T) {
	if !NoteDonHand.IsHit() || NoteDrumroll.IsHit() {
		t.Error("unexpected IsHit result")
	}
	if !NoteKusudama.IsRollStart() || NoteEndRoll.IsRollStart() {
		t.Error("unexpected IsRollStart result")
	}
	if !NoteBalloon.IsBalloon() || NoteDrumrollBig.IsBalloon() {
		t.Error("unexpected IsBalloon result")
	}
}

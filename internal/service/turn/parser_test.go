package turn

import (
	"errors"
	"testing"
)

func TestParse_ThreeTurns(t *testing.T) {
	turns, err := Parse("Agent: Good morning.\nCustomer: I lost my card.\nAgent: I can help with that.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}

	expected := []struct{ label, text string }{
		{"Agent", "Good morning."},
		{"Customer", "I lost my card."},
		{"Agent", "I can help with that."},
	}
	for i, e := range expected {
		if turns[i].Label != e.label {
			t.Errorf("turn %d: expected label %q, got %q", i, e.label, turns[i].Label)
		}
		if turns[i].Text != e.text {
			t.Errorf("turn %d: expected text %q, got %q", i, e.text, turns[i].Text)
		}
	}
}

func TestParse_ContinuationMerged(t *testing.T) {
	turns, err := Parse("Agent: Hello,\nhow can I help?\nCustomer: Thanks.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Text != "Hello, how can I help?" {
		t.Errorf("expected merged text, got %q", turns[0].Text)
	}
	if turns[1].Text != "Thanks." {
		t.Errorf("expected 'Thanks.', got %q", turns[1].Text)
	}
}

func TestParse_DiscardsLinesBeforeFirstLabel(t *testing.T) {
	turns, err := Parse("Call recording 2024-03-01\n\n  Agent:  Hi there  \n\n   second line  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if turns[0].Label != "Agent" || turns[0].Text != "Hi there second line" {
		t.Errorf("unexpected turn: %+v", turns[0])
	}
}

func TestParse_NoLabels(t *testing.T) {
	inputs := []string{
		"",
		"   \n\n",
		"just some text\nwithout any speaker",
		"123: numbers are not labels",
		": empty label",
	}

	for _, in := range inputs {
		_, err := Parse(in)
		if !errors.Is(err, ErrNoTurns) {
			t.Errorf("Parse(%q): expected ErrNoTurns, got %v", in, err)
		}
	}
}

func TestParse_CRLFAndMultiWordLabels(t *testing.T) {
	turns, err := Parse("Bank Officer : Welcome\r\nCaller: hi\r\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Label != "Bank Officer" {
		t.Errorf("expected label 'Bank Officer', got %q", turns[0].Label)
	}
	if turns[1].Text != "hi" {
		t.Errorf("expected 'hi', got %q", turns[1].Text)
	}
}

func TestParse_LabelWithoutText(t *testing.T) {
	turns, err := Parse("Agent:\nCustomer:\nplease hold\nAgent:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if turns[0].Text != "" {
		t.Errorf("expected empty text, got %q", turns[0].Text)
	}
	if turns[1].Text != "please hold" {
		t.Errorf("expected 'please hold', got %q", turns[1].Text)
	}
}

func TestSplitLabel(t *testing.T) {
	tests := []struct {
		line      string
		label     string
		remainder string
		ok        bool
	}{
		{"Agent: hello", "Agent", "hello", true},
		{"agent :hello", "agent", "hello", true},
		{"AGENT:", "AGENT", "", true},
		{"Note: the time is 10:30", "Note", "the time is 10:30", true},
		{"Agent 2: hello", "", "", false},
		{"Ágent: hola", "", "", false},
		{"no colon here", "", "", false},
		{" Agent: leading space", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			label, rest, ok := SplitLabel(tt.line)
			if ok != tt.ok || label != tt.label || rest != tt.remainder {
				t.Errorf("SplitLabel(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.line, label, rest, ok, tt.label, tt.remainder, tt.ok)
			}
		})
	}
}

func TestParse_LineSeparators(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
	}{
		{"carriage return", "Agent: hi\rCustomer: yo"},
		{"crlf", "Agent: hi\r\nCustomer: yo"},
		{"vertical tab", "Agent: hi\vCustomer: yo"},
		{"form feed", "Agent: hi\fCustomer: yo"},
		{"record separator", "Agent: hi\x1eCustomer: yo"},
		{"next line", "Agent: hi\u0085Customer: yo"},
		{"line separator", "Agent: hi\u2028Customer: yo"},
		{"paragraph separator", "Agent: hi\u2029Customer: yo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turns, err := Parse(tt.transcript)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(turns) != 2 {
				t.Fatalf("expected 2 turns, got %d: %+v", len(turns), turns)
			}
			if turns[0].Label != "Agent" || turns[0].Text != "hi" {
				t.Errorf("expected Agent/hi, got %+v", turns[0])
			}
			if turns[1].Label != "Customer" || turns[1].Text != "yo" {
				t.Errorf("expected Customer/yo, got %+v", turns[1])
			}
		})
	}
}

func TestParse_CarriageReturnContinuation(t *testing.T) {
	turns, err := Parse("Agent: Hello,\rhow can I help?\r\rCustomer: Thanks.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Text != "Hello, how can I help?" {
		t.Errorf("expected merged text, got %q", turns[0].Text)
	}
}

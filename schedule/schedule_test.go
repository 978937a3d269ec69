package schedule

import "testing"

func TestNewRoster(t *testing.T) {
	roster, err := NewRoster("gpt", "gemini", "deepseek")
	if err != nil {
		t.Fatalf("Failed to create roster: %v", err)
	}
	if len(roster) != 3 {
		t.Errorf("Expected 3 speakers, got %d", len(roster))
	}
}

func TestNewRosterEmpty(t *testing.T) {
	_, err := NewRoster()
	if err == nil {
		t.Errorf("Expected error for empty roster")
	}
}

func TestNewRosterDuplicate(t *testing.T) {
	_, err := NewRoster("gpt", "gpt")
	if err == nil {
		t.Errorf("Expected error for duplicate speaker")
	}
}

func TestNewRosterEmptyID(t *testing.T) {
	_, err := NewRoster("gpt", "")
	if err == nil {
		t.Errorf("Expected error for empty speaker id")
	}
}

func TestNextSpeakerRoundRobin(t *testing.T) {
	rosters := []Roster{
		{"gpt"},
		{"gpt", "gemini"},
		{"gpt", "gemini", "deepseek"},
		{"a", "b", "c", "d", "e"},
	}

	for _, roster := range rosters {
		for i := 0; i < 30; i++ {
			want := roster[i%len(roster)]
			got := NextSpeaker(i, roster)
			if got != want {
				t.Errorf("roster %v turn %d: expected %s, got %s", roster, i, want, got)
			}
		}
	}
}

func TestNextSpeakerMonologue(t *testing.T) {
	roster := Roster{"gpt"}
	for i := 0; i < 9; i++ {
		if NextSpeaker(i, roster) != "gpt" {
			t.Errorf("Expected gpt on every turn of a single-speaker roster")
		}
	}
}

func TestRosterClone(t *testing.T) {
	roster, _ := NewRoster("gpt", "gemini")
	cloned := roster.Clone()
	cloned[0] = "mutated"
	if roster[0] != "gpt" {
		t.Errorf("Clone should not share backing storage with original")
	}
}

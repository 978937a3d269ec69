package message

import "testing"

func TestCloneIsIndependent(t *testing.T) {
	original := NewSpeakerMessage("gpt", "hello")
	cloned := Clone(original)

	cloned.Content = "changed"
	if original.Content != "hello" {
		t.Errorf("Mutating the clone changed the original: %q", original.Content)
	}
	if cloned.ID != original.ID || cloned.Speaker != original.Speaker {
		t.Errorf("Clone should preserve identity fields")
	}
	if Clone(nil) != nil {
		t.Errorf("Clone of nil should be nil")
	}
}

func TestCloneMessages(t *testing.T) {
	msgs := []*Message{
		NewMessage(RoleUser, "first"),
		NewSpeakerMessage("gpt", "second"),
	}
	clones := CloneMessages(msgs)

	if len(clones) != len(msgs) {
		t.Fatalf("Expected %d clones, got %d", len(msgs), len(clones))
	}
	clones[0].Content = "changed"
	if msgs[0].Content != "first" {
		t.Errorf("Mutating a clone changed the original: %q", msgs[0].Content)
	}
	if CloneMessages(nil) != nil {
		t.Errorf("CloneMessages of empty input should be nil")
	}
}

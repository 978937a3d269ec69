package schedule

import "fmt"

// Roster is the ordered, fixed list of speakers participating in a session.
// It never changes after the session is configured.
type Roster []string

// NewRoster validates and copies the given speaker ids.
func NewRoster(speakers ...string) (Roster, error) {
	if len(speakers) == 0 {
		return nil, fmt.Errorf("roster cannot be empty")
	}
	seen := make(map[string]struct{}, len(speakers))
	roster := make(Roster, 0, len(speakers))
	for _, id := range speakers {
		if id == "" {
			return nil, fmt.Errorf("roster speaker id cannot be empty")
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("roster speaker %q listed twice", id)
		}
		seen[id] = struct{}{}
		roster = append(roster, id)
	}
	return roster, nil
}

// Clone returns a copy of the roster.
func (r Roster) Clone() Roster {
	if len(r) == 0 {
		return nil
	}
	cloned := make(Roster, len(r))
	copy(cloned, r)
	return cloned
}

// NextSpeaker returns the speaker for the given turn index using round-robin
// order. A roster of one yields a monologue, which is permitted.
func NextSpeaker(turnIndex int, roster Roster) string {
	return roster[turnIndex%len(roster)]
}

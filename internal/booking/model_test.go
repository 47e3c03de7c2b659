package booking

import "testing"

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"pending", "assigned", "accepted", "in_progress", "completed", "cancelled", "rejected"} {
		if _, err := ParseStatus(valid); err != nil {
			t.Errorf("ParseStatus(%q): unexpected error %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "done", "PENDING", "in-progress"} {
		if _, err := ParseStatus(invalid); err == nil {
			t.Errorf("ParseStatus(%q): expected error", invalid)
		}
	}
}

func TestTerminal(t *testing.T) {
	cases := map[Status]bool{
		StatusPending:    false,
		StatusAssigned:   false,
		StatusAccepted:   false,
		StatusInProgress: false,
		StatusCompleted:  true,
		StatusCancelled:  true,
	}
	for status, want := range cases {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

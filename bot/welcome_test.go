package bot

import "testing"

func TestRenderWelcome(t *testing.T) {
	if got := renderWelcome("", "Ada", "Go Chat"); got != "Welcome, Ada!" {
		t.Errorf("unexpected default greeting: %q", got)
	}

	got := renderWelcome("Hi {name}, welcome to {chat}!", "Ada", "Go Chat")
	if got != "Hi Ada, welcome to Go Chat!" {
		t.Errorf("unexpected rendered greeting: %q", got)
	}

	// A template without placeholders is sent as-is.
	if got := renderWelcome("Read the rules.", "Ada", "Go Chat"); got != "Read the rules." {
		t.Errorf("unexpected greeting: %q", got)
	}
}

package bot

import (
	"testing"
	"time"
)

func TestKarmaDelta(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"+", 1},
		{"+1", 1},
		{"thanks", 1},
		{"Thank you", 1},
		{"TY", 1},
		{" +1 ", 1},
		{"-", -1},
		{"-1", -1},
		{"thanks a lot", 0},
		{"+2", 0},
		{"hello", 0},
		{"", 0},
	}

	for _, tc := range cases {
		if got := karmaDelta(tc.text); got != tc.want {
			t.Errorf("karmaDelta(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestKarmaVoteCooldown(t *testing.T) {
	b := &Bot{karmaLast: make(map[string]time.Time)}

	if !b.karmaVoteAllowed(-1, 50) {
		t.Fatal("first vote denied")
	}
	if b.karmaVoteAllowed(-1, 50) {
		t.Error("second vote inside the cooldown allowed")
	}

	// Other voters and other chats have their own windows.
	if !b.karmaVoteAllowed(-1, 51) {
		t.Error("another voter denied")
	}
	if !b.karmaVoteAllowed(-2, 50) {
		t.Error("same voter in another chat denied")
	}

	// An expired window admits the voter again.
	b.karmaLast["-1:50"] = time.Now().Add(-2 * karmaCooldown)
	if !b.karmaVoteAllowed(-1, 50) {
		t.Error("vote denied after the cooldown expired")
	}
}

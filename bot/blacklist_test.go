package bot

import "testing"

func TestMatchBlacklist(t *testing.T) {
	triggers := []string{"spam", "buy now"}

	cases := []struct {
		text    string
		trigger string
		want    bool
	}{
		{"this is spam", "spam", true},
		{"SPAM!", "spam", true},
		{"spam", "spam", true},
		{"(spam)", "spam", true},
		{"spammer", "", false},
		{"antispam", "", false},
		{"buy now and save", "buy now", true},
		{"nothing wrong here", "", false},
	}

	for _, tc := range cases {
		trigger, got := matchBlacklist(tc.text, triggers)
		if got != tc.want {
			t.Errorf("matchBlacklist(%q) = %v, want %v", tc.text, got, tc.want)
			continue
		}
		if got && trigger != tc.trigger {
			t.Errorf("matchBlacklist(%q) matched %q, want %q", tc.text, trigger, tc.trigger)
		}
	}
}

package core

import (
	"regexp"
	"testing"
)

func TestSuggestChannelName(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z]+-[a-z]+-\d{1,2}$`)

	for i := 0; i < 50; i++ {
		name := SuggestChannelName()
		if !pattern.MatchString(name) {
			t.Fatalf("unexpected name shape: %q", name)
		}
	}
}

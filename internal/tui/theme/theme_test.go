package theme

import (
	"testing"

	"github.com/theirongolddev/koshin/internal/cli"
	"github.com/theirongolddev/koshin/internal/model"
)

func TestByNameFallsBack(t *testing.T) {
	if got := ByName("tokyo-night"); got.Name != "tokyo-night" {
		t.Fatalf("ByName(tokyo-night) = %s", got.Name)
	}
	if got := ByName("solarized"); got.Name != FlexokiDark.Name {
		t.Fatalf("unknown theme = %s, want %s", got.Name, FlexokiDark.Name)
	}
	if Valid("solarized") || !Valid("terminal") {
		t.Fatal("Valid disagrees with All")
	}
	if len(Names()) != len(All) {
		t.Fatalf("Names() = %v", Names())
	}
}

func TestUrgencyColors(t *testing.T) {
	th := Sumi
	tests := map[cli.Urgency]string{
		cli.UrgencyUrgent:  string(th.Red),
		cli.UrgencyWarning: string(th.Orange),
		cli.UrgencyNormal:  string(th.Green),
	}
	for u, want := range tests {
		if got := string(th.Urgency(u)); got != want {
			t.Errorf("Urgency(%s) = %s, want %s", u, got, want)
		}
	}
}

func TestCategoryColorsAreDistinct(t *testing.T) {
	for _, th := range All {
		seen := map[string]model.Category{}
		for _, c := range model.Categories {
			col := string(th.Category(c))
			if prev, dup := seen[col]; dup {
				t.Fatalf("%s: %s and %s share color %s", th.Name, prev, c, col)
			}
			seen[col] = c
		}
		if got := th.Category("lease"); got != th.TextMuted {
			t.Errorf("%s: unknown category = %s, want TextMuted", th.Name, got)
		}
	}
}

package input

import (
	"testing"

	"deskctl-go/types"
)

func TestChangedSinceKinds(t *testing.T) {
	cases := []struct {
		old, cur ButtonState
		want     StateChange
	}{
		{0, 0, StateChange{Kind: StillReleased}},
		{1, 1, StateChange{Kind: StillPressed}},
		{0, 1, StateChange{Kind: Pressed}},
		{1, 2, StateChange{Kind: Released}},
		{0, 2, StateChange{Kind: Released, Missed: true}},
		{0, 3, StateChange{Kind: Pressed, Missed: true}},
		// Wrap-around: 255 -> 0 is one release.
		{255, 0, StateChange{Kind: Released}},
		{254, 1, StateChange{Kind: Pressed, Missed: true}},
	}
	for _, c := range cases {
		if got := c.cur.ChangedSince(c.old); got != c.want {
			t.Fatalf("%d since %d = %+v, want %+v", c.cur, c.old, got, c.want)
		}
	}
}

func TestPressIsIdempotent(t *testing.T) {
	var in Inputs
	if !in.press(types.ButtonUp) {
		t.Fatal("first press must change state")
	}
	if in.press(types.ButtonUp) {
		t.Fatal("second press must be a no-op")
	}
	if in.State(types.ButtonUp) != 1 {
		t.Fatalf("counter = %d, want 1", in.State(types.ButtonUp))
	}
	if in.release(types.ButtonDown) {
		t.Fatal("releasing a released button must be a no-op")
	}
	if in.Held() != types.ButtonUp {
		t.Fatalf("Held() = %v", in.Held())
	}
}

func TestPressedExclusive(t *testing.T) {
	var old, cur Inputs
	cur.press(types.ButtonPos1)
	if b, ok := cur.ChangedSince(old).PressedExclusive(); !ok || b != types.ButtonPos1 {
		t.Fatalf("PressedExclusive() = %v, %v", b, ok)
	}

	// Two fresh presses are a chord, not an exclusive press.
	cur.press(types.ButtonPos2)
	if _, ok := cur.ChangedSince(old).PressedExclusive(); ok {
		t.Fatal("chord reported as exclusive press")
	}
	if got := cur.ChangedSince(old).Pressed(); got != types.ButtonPos1|types.ButtonPos2 {
		t.Fatalf("Pressed() = %v", got)
	}

	// A missed update anywhere suppresses the event.
	old, cur = Inputs{}, Inputs{}
	cur.press(types.ButtonUp)
	cur.press(types.ButtonDown)
	cur.release(types.ButtonDown)
	if _, ok := cur.ChangedSince(old).PressedExclusive(); ok {
		t.Fatal("press reported despite missed update")
	}

	// Nothing changed.
	if _, ok := old.ChangedSince(old).PressedExclusive(); ok {
		t.Fatal("exclusive press without any change")
	}
}

func TestReleased(t *testing.T) {
	var old, cur Inputs
	old.press(types.ButtonDown)
	cur = old
	cur.release(types.ButtonDown)
	ch := cur.ChangedSince(old)
	if !ch.IsReleased(types.ButtonDown) || !ch.IsReleased(types.ButtonUp) {
		t.Fatal("down freshly released and up still released must both count")
	}
	if ch.Released() != types.ButtonAll {
		t.Fatalf("Released() = %v", ch.Released())
	}
	if ch.Of(types.ButtonDown).Kind != Released {
		t.Fatalf("Of(down) = %v", ch.Of(types.ButtonDown))
	}
}

package status

import (
	"errors"
	"testing"
)

func TestSteps_Order(t *testing.T) {
	want := []string{
		"Clone", "AwaitLockRelease", "ConfigureHardware", "ResizeDisk",
		"ConfigureNetwork", "ConfigureCloudInitUser", "InjectSSHKey", "Start", "Complete",
	}

	steps := Steps()
	if len(steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(steps))
	}
	for i, s := range steps {
		if s.String() != want[i] {
			t.Errorf("step %d = %s, want %s", i, s, want[i])
		}
		if s.Title() == "" {
			t.Errorf("step %s has no title", s)
		}
	}
}

func TestTracker_HappyPath(t *testing.T) {
	tr := NewTracker()

	var events []Event
	tr.Subscribe(func(ev Event) { events = append(events, ev) })

	for _, s := range Steps() {
		if s == InjectSSHKey {
			if err := tr.Skip(s); err != nil {
				t.Fatalf("Skip(%s) failed: %v", s, err)
			}
			continue
		}
		if err := tr.Begin(s); err != nil {
			t.Fatalf("Begin(%s) failed: %v", s, err)
		}
		if err := tr.Finish(s); err != nil {
			t.Fatalf("Finish(%s) failed: %v", s, err)
		}
	}

	for i, st := range tr.Snapshot() {
		if st == Failed {
			t.Errorf("expected no failed steps, %s failed", Step(i))
		}
	}
	if tr.State(InjectSSHKey) != Skipped {
		t.Errorf("expected InjectSSHKey skipped, got %s", tr.State(InjectSSHKey))
	}
	if tr.State(Complete) != Done {
		t.Errorf("expected Complete done, got %s", tr.State(Complete))
	}

	// Two events per executed step, one for the skipped step
	if len(events) != 2*(len(Steps())-1)+1 {
		t.Errorf("unexpected event count %d", len(events))
	}
	if events[0].Step != Clone || events[0].State != Active {
		t.Errorf("first event = %+v, want Clone Active", events[0])
	}
}

func TestTracker_RejectsOutOfOrder(t *testing.T) {
	tests := []struct {
		name string
		run  func(*Tracker) error
	}{
		{"begin before predecessor", func(tr *Tracker) error { return tr.Begin(ResizeDisk) }},
		{"skip before predecessor", func(tr *Tracker) error { return tr.Skip(InjectSSHKey) }},
		{"finish pending", func(tr *Tracker) error { return tr.Finish(Clone) }},
		{"fail pending", func(tr *Tracker) error { return tr.Fail(Clone, errors.New("boom")) }},
		{"begin twice", func(tr *Tracker) error {
			_ = tr.Begin(Clone)
			return tr.Begin(Clone)
		}},
		{"begin after active predecessor", func(tr *Tracker) error {
			_ = tr.Begin(Clone)
			return tr.Begin(AwaitLockRelease)
		}},
		{"begin after failed predecessor", func(tr *Tracker) error {
			_ = tr.Begin(Clone)
			_ = tr.Fail(Clone, errors.New("boom"))
			return tr.Begin(AwaitLockRelease)
		}},
		{"finish done", func(tr *Tracker) error {
			_ = tr.Begin(Clone)
			_ = tr.Finish(Clone)
			return tr.Finish(Clone)
		}},
		{"unknown step", func(tr *Tracker) error { return tr.Begin(Step(42)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(NewTracker()); err == nil {
				t.Error("expected transition to be rejected")
			}
		})
	}
}

func TestTracker_Fail(t *testing.T) {
	tr := NewTracker()
	cause := errors.New("clone failed")

	var got Event
	tr.Subscribe(func(ev Event) { got = ev })

	if err := tr.Begin(Clone); err != nil {
		t.Fatal(err)
	}
	if err := tr.Fail(Clone, cause); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	if got.State != Failed || !errors.Is(got.Err, cause) {
		t.Errorf("unexpected failure event: %+v", got)
	}

	snap := tr.Snapshot()
	if snap[Clone] != Failed || snap[AwaitLockRelease] != Pending {
		t.Errorf("unexpected snapshot: %v", snap)
	}
}

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{Pending, false},
		{Active, false},
		{Done, true},
		{Failed, true},
		{Skipped, true},
	}
	for _, tt := range tests {
		if got := tt.state.IsTerminal(); got != tt.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

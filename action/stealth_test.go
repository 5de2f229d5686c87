package action

import (
	"reflect"
	"testing"
)

func newStealth(t *testing.T, rec *recorder, mv *fakeMovement, desc *Descriptor) Action {
	t.Helper()
	a, err := NewStealthMode(newHost(rec, mv), desc, Request{Type: desc.Type})
	if err != nil {
		t.Fatalf("NewStealthMode: %v", err)
	}
	if !a.Start() {
		t.Fatalf("Start should admit stealth")
	}
	return a
}

func TestStealthWindupCommitsOnce(t *testing.T) {
	rec := newRecorder()
	mv := &fakeMovement{moving: true}
	a := newStealth(t, rec, mv, stealthDescriptor())

	if mv.cancelled != 1 {
		t.Fatalf("Start should cancel voluntary movement once, got %d", mv.cancelled)
	}
	if a.Phase() != PhaseExecuting {
		t.Fatalf("expected executing after Start, got %s", a.Phase())
	}

	steps := []struct {
		name        string
		wantStealth bool
		wantNonBlk  bool
	}{
		{"tick_1", false, false},
		{"tick_2", false, false},
		{"tick_3", true, true},
		{"tick_4", true, true},
	}
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			if !a.Update(0.4) {
				t.Fatalf("stealth should stay alive")
			}
			if rec.stealthy.value != step.wantStealth {
				t.Fatalf("stealthy = %v, want %v", rec.stealthy.value, step.wantStealth)
			}
			if a.ShouldBecomeNonBlocking() != step.wantNonBlk {
				t.Fatalf("ShouldBecomeNonBlocking = %v, want %v", a.ShouldBecomeNonBlocking(), step.wantNonBlk)
			}
		})
	}
	if rec.stealthy.sets != 1 {
		t.Fatalf("flag should be set exactly once, got %d sets", rec.stealthy.sets)
	}
	if a.Phase() != PhaseActive {
		t.Fatalf("expected active, got %s", a.Phase())
	}
	want := []string{"execute:stealth_mode", "stealthy=true"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
}

func TestStealthAttackedDuringWindup(t *testing.T) {
	rec := newRecorder()
	a := newStealth(t, rec, &fakeMovement{}, stealthDescriptor())

	a.Update(0.4)
	a.Update(0.4)
	a.OnGameplayActivity(AttackedByEnemy)

	if a.Update(0.4) {
		t.Fatalf("stealth should report dead after being hit during windup")
	}
	if rec.stealthy.sets != 0 {
		t.Fatalf("flag must never be touched when the effect never started")
	}
	want := []string{"execute:stealth_mode", "cancel:stealth_mode"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
	if a.Phase() != PhaseEnded {
		t.Fatalf("expected ended, got %s", a.Phase())
	}
}

func TestStealthBrokenAfterCommit(t *testing.T) {
	cases := []struct {
		name     string
		activity Activity
		breaks   bool
	}{
		{"attacking", UsingAttackAction, true},
		{"attacked", AttackedByEnemy, true},
		{"healed", Healed, false},
		{"stopped_charging", StoppedChargingUp, false},
		{"movement", MovementAttempted, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := newRecorder()
			a := newStealth(t, rec, &fakeMovement{}, stealthDescriptor())
			a.Update(1.0)
			if !rec.stealthy.value {
				t.Fatalf("expected stealth committed")
			}

			a.OnGameplayActivity(c.activity)
			alive := a.Update(0.1)
			if alive == c.breaks {
				t.Fatalf("alive = %v after %s", alive, c.activity)
			}
			if rec.stealthy.value == c.breaks {
				t.Fatalf("stealthy = %v after %s", rec.stealthy.value, c.activity)
			}
			wantCancels := 0
			if c.breaks {
				wantCancels = 1
			}
			if got := rec.count("cancel:stealth_mode"); got != wantCancels {
				t.Fatalf("cancel broadcasts = %d, want %d", got, wantCancels)
			}
		})
	}
}

func TestStealthCancelIsIdempotent(t *testing.T) {
	rec := newRecorder()
	a := newStealth(t, rec, &fakeMovement{}, stealthDescriptor())
	a.Update(1.2)

	a.Cancel()
	a.Cancel()
	a.OnGameplayActivity(UsingAttackAction)

	if got := rec.count("cancel:stealth_mode"); got != 1 {
		t.Fatalf("expected one cancel broadcast, got %d", got)
	}
	if got := rec.count("stealthy=false"); got != 1 {
		t.Fatalf("expected one flag reset, got %d", got)
	}
	if a.Update(0.1) {
		t.Fatalf("cancelled stealth must stay dead")
	}
	if rec.stealthy.value {
		t.Fatalf("flag must not be set again after cancel")
	}
}

func TestStealthDurationEndsNaturally(t *testing.T) {
	desc := stealthDescriptor()
	desc.DurationSeconds = 2.0
	rec := newRecorder()
	a := newStealth(t, rec, &fakeMovement{}, desc)

	if !a.Update(1.0) || !rec.stealthy.value {
		t.Fatalf("expected committed stealth after windup")
	}
	if !a.Update(1.5) {
		t.Fatalf("stealth should still run before the duration elapses")
	}
	if a.Update(0.5) {
		t.Fatalf("stealth should end once the duration elapses")
	}
	if rec.stealthy.value {
		t.Fatalf("flag should be reset on natural end")
	}
	a.Cancel()
	if got := rec.count("cancel:stealth_mode"); got != 1 {
		t.Fatalf("cancel after natural end must not broadcast again, got %d", got)
	}
}

func TestStealthKeepsForcedMovement(t *testing.T) {
	rec := newRecorder()
	mv := &fakeMovement{forced: true}
	newStealth(t, rec, mv, stealthDescriptor())
	if mv.cancelled != 0 {
		t.Fatalf("forced movement must not be cancelled, got %d cancels", mv.cancelled)
	}
}

func TestStealthZeroExecCommitsOnFirstUpdate(t *testing.T) {
	desc := stealthDescriptor()
	desc.ExecTimeSeconds = 0
	rec := newRecorder()
	a := newStealth(t, rec, &fakeMovement{}, desc)

	if !a.ShouldBecomeNonBlocking() {
		t.Fatalf("zero windup should become non-blocking immediately")
	}
	if rec.stealthy.value {
		t.Fatalf("flag is only set from Update")
	}
	a.Update(0)
	if !rec.stealthy.value {
		t.Fatalf("first Update should commit with zero windup")
	}
}

func TestStealthNegativeDeltaIgnored(t *testing.T) {
	rec := newRecorder()
	a := newStealth(t, rec, &fakeMovement{}, stealthDescriptor())
	a.Update(0.5)
	a.Update(-10)
	if got := a.TimeRunning(); got != 0.5 {
		t.Fatalf("time running = %v, want 0.5", got)
	}
}

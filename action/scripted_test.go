package action

import (
	"errors"
	"reflect"
	"testing"
)

const smokeScript = `
on_start := func(engine, state) {
	engine.notify_execute()
	if !engine.is_forced_moving() {
		engine.cancel_move()
	}
	state.hidden = false
	return true
}

on_update := func(engine, state) {
	t := engine.time_running()
	if !state.hidden && t >= engine.exec_time() {
		state.hidden = true
		engine.set_stealthy(true)
	}
	if engine.duration() > 0 && t >= engine.exec_time() + engine.duration() {
		engine.end()
	}
	return true
}

should_become_non_blocking := func(engine, state) {
	return engine.time_running() >= engine.exec_time()
}

on_activity := func(engine, state, kind) {
	if kind == "using_attack_action" {
		engine.end()
	}
}

on_end := func(engine, state) {
	if state.hidden {
		engine.set_stealthy(false)
	}
}
`

func smokeDescriptor() *Descriptor {
	return &Descriptor{
		Type:            "smoke_bomb",
		Logic:           LogicScripted,
		ExecTimeSeconds: 0.5,
		DurationSeconds: 2.0,
		BlockingMode:    BlockOnlyDuringExecTime,
		Exclusive:       true,
		ExclusiveGroup:  "stealth",
		Script:          "smoke_bomb.tengo",
		ScriptSource:    []byte(smokeScript),
	}
}

func buildScripted(t *testing.T, f *Factory, rec *recorder, mv *fakeMovement) Action {
	t.Helper()
	a, err := f.Build(newHost(rec, mv), Request{Type: "smoke_bomb"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !a.Start() {
		t.Fatalf("Start should admit the script")
	}
	return a
}

func TestScriptedLifecycle(t *testing.T) {
	f := NewFactory(mapLookup{"smoke_bomb": smokeDescriptor()})
	rec := newRecorder()
	mv := &fakeMovement{}
	a := buildScripted(t, f, rec, mv)

	if mv.cancelled != 1 {
		t.Fatalf("on_start should cancel movement, got %d", mv.cancelled)
	}
	if a.ShouldBecomeNonBlocking() {
		t.Fatalf("script should block during windup")
	}
	if !a.Update(0.25) || rec.stealthy.value {
		t.Fatalf("windup not finished at 0.25s")
	}
	if !a.Update(0.25) || !rec.stealthy.value {
		t.Fatalf("script should hide at 0.5s")
	}
	if !a.ShouldBecomeNonBlocking() {
		t.Fatalf("script should stop blocking after windup")
	}
	if a.Phase() != PhaseActive {
		t.Fatalf("expected active, got %s", a.Phase())
	}

	a.OnGameplayActivity(AttackedByEnemy)
	if !a.Update(0.1) {
		t.Fatalf("being attacked does not break the smoke")
	}
	a.OnGameplayActivity(UsingAttackAction)
	if a.Update(0.1) {
		t.Fatalf("attacking should end the smoke")
	}
	a.Cancel()

	want := []string{"execute:smoke_bomb", "stealthy=true", "stealthy=false", "cancel:smoke_bomb"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
}

func TestScriptedEndsAfterDuration(t *testing.T) {
	f := NewFactory(mapLookup{"smoke_bomb": smokeDescriptor()})
	rec := newRecorder()
	a := buildScripted(t, f, rec, &fakeMovement{})

	alive := true
	for i := 0; i < 30 && alive; i++ {
		alive = a.Update(0.1)
	}
	if alive {
		t.Fatalf("script should end after exec+duration")
	}
	if rec.stealthy.value {
		t.Fatalf("flag should be released")
	}
	if got := rec.count("cancel:smoke_bomb"); got != 1 {
		t.Fatalf("expected one cancel broadcast, got %d", got)
	}
}

func TestScriptedInstancesHaveSeparateState(t *testing.T) {
	f := NewFactory(mapLookup{"smoke_bomb": smokeDescriptor()})
	recA, recB := newRecorder(), newRecorder()
	a := buildScripted(t, f, recA, &fakeMovement{})
	b := buildScripted(t, f, recB, &fakeMovement{})

	a.Update(0.5)
	if !recA.stealthy.value {
		t.Fatalf("a should be hidden")
	}
	if recB.stealthy.value {
		t.Fatalf("b must not share a's state")
	}
	b.Update(0.1)
	if recB.stealthy.value {
		t.Fatalf("b is still in windup")
	}
}

func TestScriptedCompileError(t *testing.T) {
	desc := smokeDescriptor()
	desc.ScriptSource = []byte("on_start := func(engine, state) {")
	f := NewFactory(mapLookup{"smoke_bomb": desc})
	if _, err := f.Build(newHost(newRecorder(), &fakeMovement{}), Request{Type: "smoke_bomb"}); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestFactoryBuildErrors(t *testing.T) {
	f := NewFactory(mapLookup{
		"odd": {Type: "odd", Logic: "teleport", BlockingMode: NonBlocking},
	})
	host := newHost(newRecorder(), &fakeMovement{})

	if _, err := f.Build(host, Request{Type: "missing"}); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	if _, err := f.Build(host, Request{Type: "odd"}); !errors.Is(err, ErrUnknownLogic) {
		t.Fatalf("expected ErrUnknownLogic, got %v", err)
	}

	f.SetDescriptors(mapLookup{"stealth_mode": stealthDescriptor()})
	if _, ok := f.Descriptor("odd"); ok {
		t.Fatalf("old descriptors should be gone after SetDescriptors")
	}
	a, err := f.Build(host, Request{Type: "stealth_mode"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := a.(*StealthMode); !ok {
		t.Fatalf("expected *StealthMode, got %T", a)
	}
	if a.Phase() != PhaseCreated {
		t.Fatalf("built action should not be started, got %s", a.Phase())
	}
}

func TestDescriptorValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(d *Descriptor)
		wantErr bool
	}{
		{"valid", func(d *Descriptor) {}, false},
		{"empty_type", func(d *Descriptor) { d.Type = "" }, true},
		{"negative_exec", func(d *Descriptor) { d.ExecTimeSeconds = -1 }, true},
		{"negative_duration", func(d *Descriptor) { d.DurationSeconds = -0.5 }, true},
		{"bad_blocking_mode", func(d *Descriptor) { d.BlockingMode = "sometimes" }, true},
		{"empty_logic", func(d *Descriptor) { d.Logic = "" }, true},
		{"scripted_without_script", func(d *Descriptor) { d.Logic = LogicScripted }, true},
		{"custom_logic", func(d *Descriptor) { d.Logic = "teleport" }, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := stealthDescriptor()
			c.mutate(d)
			err := d.Validate()
			if (err != nil) != c.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, c.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDescriptor) {
				t.Fatalf("error should wrap ErrInvalidDescriptor: %v", err)
			}
		})
	}
}

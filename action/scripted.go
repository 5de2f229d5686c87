package action

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"go.uber.org/zap"
)

const scriptDispatch = `
if __phase == "start" {
	__result = on_start(__engine, __state)
} else if __phase == "update" {
	__result = on_update(__engine, __state)
} else if __phase == "non_blocking" {
	__result = should_become_non_blocking(__engine, __state)
} else if __phase == "activity" {
	__result = on_activity(__engine, __state, __arg)
} else if __phase == "end" {
	__result = on_end(__engine, __state)
}
`

// can_start is optional, so its branch is only compiled in when the script
// declares it.
const canStartDispatch = `
if __phase == "can_start" {
	__result = can_start(__engine, __state)
}
`

var canStartDecl = regexp.MustCompile(`(?m)^\s*can_start\s*:=`)

var scriptModules = []string{"math", "text", "times", "fmt", "enum"}

// scriptCache compiles each descriptor's script once and hands out clones,
// so every lifecycle gets its own globals.
type scriptCache struct {
	mu       sync.Mutex
	compiled map[*Descriptor]*tengo.Compiled
}

func newScriptCache() *scriptCache {
	return &scriptCache{compiled: map[*Descriptor]*tengo.Compiled{}}
}

func (c *scriptCache) get(desc *Descriptor) (*tengo.Compiled, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if compiled, ok := c.compiled[desc]; ok {
		return compiled.Clone(), nil
	}
	if len(desc.ScriptSource) == 0 {
		return nil, fmt.Errorf("action: %s: script %q has no source", desc.Type, desc.Script)
	}

	src := string(desc.ScriptSource) + "\n" + scriptDispatch
	if canStartDecl.Match(desc.ScriptSource) {
		src += canStartDispatch
	}
	script := tengo.NewScript([]byte(src))
	_ = script.Add("__phase", "")
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	_ = script.Add("__arg", "")
	_ = script.Add("__result", nil)
	script.SetImports(stdlib.GetModuleMap(scriptModules...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("action: %s: compile %s: %w", desc.Type, desc.Script, err)
	}
	c.compiled[desc] = compiled
	return compiled.Clone(), nil
}

// Scripted drives its lifecycle hooks from a tengo script. The end-routine
// guard lives in Go, so a script cannot end an action twice.
type Scripted struct {
	Base

	compiled *tengo.Compiled
	state    *tengo.Map
	engine   *tengo.ImmutableMap

	ended        bool
	endRequested bool
	// checking is set while can_start runs; host calls are no-ops then.
	checking bool
}

func newScriptedConstructor(cache *scriptCache) Constructor {
	return func(host Host, desc *Descriptor, req Request) (Action, error) {
		compiled, err := cache.get(desc)
		if err != nil {
			return nil, err
		}
		a := &Scripted{
			Base:     NewBase(host, desc, req),
			compiled: compiled,
			state:    &tengo.Map{Value: map[string]tengo.Object{}},
		}
		a.engine = a.buildEngine()
		return a, nil
	}
}

// CanStart runs the script's can_start hook, if any, with every host call
// disabled. A script without the hook can always start.
func (a *Scripted) CanStart() bool {
	a.checking = true
	defer func() { a.checking = false }()
	res, err := a.run("can_start", "")
	if err != nil {
		a.log.Warn("script can_start failed", zap.Error(err))
		return false
	}
	return truthy(res, true)
}

func (a *Scripted) Start() bool {
	a.markStarted()
	res, err := a.run("start", "")
	if err != nil {
		a.log.Warn("script on_start failed", zap.Error(err))
		return false
	}
	a.flushEndRequest()
	return truthy(res, true)
}

func (a *Scripted) Update(dt float64) bool {
	if a.ended {
		return false
	}
	a.Advance(dt)
	if a.ExecDone() {
		a.markCommitted()
	}
	res, err := a.run("update", "")
	if err != nil {
		a.log.Warn("script update failed", zap.Error(err))
		a.end()
		return false
	}
	if !truthy(res, true) {
		a.endRequested = true
	}
	a.flushEndRequest()
	return !a.ended
}

func (a *Scripted) ShouldBecomeNonBlocking() bool {
	if a.ended {
		return true
	}
	res, err := a.run("non_blocking", "")
	if err != nil {
		a.log.Warn("script should_become_non_blocking failed", zap.Error(err))
		return a.Base.ShouldBecomeNonBlocking()
	}
	if res == nil || res == tengo.UndefinedValue {
		return a.Base.ShouldBecomeNonBlocking()
	}
	return !res.IsFalsy()
}

func (a *Scripted) Cancel() {
	a.end()
}

func (a *Scripted) OnGameplayActivity(kind Activity) {
	if a.ended {
		return
	}
	if _, err := a.run("activity", kind.String()); err != nil {
		a.log.Warn("script on_activity failed", zap.Error(err), zap.Stringer("activity", kind))
	}
	a.flushEndRequest()
}

func (a *Scripted) flushEndRequest() {
	if a.endRequested {
		a.end()
	}
}

func (a *Scripted) end() {
	if a.ended {
		return
	}
	a.ended = true
	a.endRequested = false
	a.markEnded()
	if _, err := a.run("end", ""); err != nil {
		a.log.Warn("script on_end failed", zap.Error(err))
	}
	if a.host.Channel != nil {
		a.host.Channel.NotifyCancelByType(a.desc.Type)
	}
}

func (a *Scripted) run(phase, arg string) (tengo.Object, error) {
	if a.compiled == nil {
		return nil, fmt.Errorf("nil script runtime")
	}
	if err := a.compiled.Set("__phase", phase); err != nil {
		return nil, err
	}
	if err := a.compiled.Set("__engine", a.engine); err != nil {
		return nil, err
	}
	if err := a.compiled.Set("__state", a.state); err != nil {
		return nil, err
	}
	if err := a.compiled.Set("__arg", arg); err != nil {
		return nil, err
	}
	if err := a.compiled.Set("__result", nil); err != nil {
		return nil, err
	}
	if err := a.compiled.Run(); err != nil {
		return nil, err
	}
	return a.compiled.Get("__result").Object(), nil
}

// buildEngine exposes the host to the script. Hooks run while the compiled
// script holds its lock, so end() only records a request that Go applies
// once the hook returns.
func (a *Scripted) buildEngine() *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["notify_execute"] = &tengo.UserFunction{Name: "notify_execute", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if a.checking || a.host.Channel == nil {
			return tengo.FalseValue, nil
		}
		a.host.Channel.NotifyExecute(a.req)
		return tengo.TrueValue, nil
	}}

	values["set_stealthy"] = &tengo.UserFunction{Name: "set_stealthy", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if a.checking || a.host.Channel == nil || len(args) < 1 {
			return tengo.FalseValue, nil
		}
		if a.ended && !args[0].IsFalsy() {
			// an ended lifecycle may only release the flag
			return tengo.FalseValue, nil
		}
		a.host.Channel.Stealthy().Set(!args[0].IsFalsy())
		return tengo.TrueValue, nil
	}}

	values["stealthy"] = &tengo.UserFunction{Name: "stealthy", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if a.host.Channel == nil {
			return tengo.FalseValue, nil
		}
		return boolObject(a.host.Channel.Stealthy().Value()), nil
	}}

	values["is_forced_moving"] = &tengo.UserFunction{Name: "is_forced_moving", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if a.host.Movement == nil {
			return tengo.FalseValue, nil
		}
		return boolObject(a.host.Movement.IsPerformingForcedMovement()), nil
	}}

	values["cancel_move"] = &tengo.UserFunction{Name: "cancel_move", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if a.checking || a.host.Movement == nil {
			return tengo.FalseValue, nil
		}
		a.host.Movement.CancelVoluntaryMovement()
		return tengo.TrueValue, nil
	}}

	values["end"] = &tengo.UserFunction{Name: "end", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if a.checking || a.ended {
			return tengo.FalseValue, nil
		}
		a.endRequested = true
		return tengo.TrueValue, nil
	}}

	values["time_running"] = &tengo.UserFunction{Name: "time_running", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: a.timeRunning}, nil
	}}

	values["exec_time"] = &tengo.UserFunction{Name: "exec_time", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: a.desc.ExecTimeSeconds}, nil
	}}

	values["duration"] = &tengo.UserFunction{Name: "duration", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: a.desc.DurationSeconds}, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, arg := range args {
			parts = append(parts, objectAsString(arg))
		}
		a.log.Debug("script", zap.String("msg", strings.Join(parts, " ")))
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func truthy(obj tengo.Object, def bool) bool {
	if obj == nil || obj == tengo.UndefinedValue {
		return def
	}
	return !obj.IsFalsy()
}

func boolObject(v bool) tengo.Object {
	if v {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

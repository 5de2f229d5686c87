package action

import "fmt"

// Type tags one kind of ability in content data.
type Type string

// Logic selects the implementation that drives a descriptor.
type Logic string

const (
	LogicStealthMode Logic = "stealth_mode"
	LogicEmote       Logic = "emote"
	LogicScripted    Logic = "scripted"
)

// BlockingMode controls how long an action holds the character's single
// blocking slot.
type BlockingMode string

const (
	BlockEntireDuration     BlockingMode = "entire_duration"
	BlockOnlyDuringExecTime BlockingMode = "only_during_exec_time"
	NonBlocking             BlockingMode = "non_blocking"
)

// Descriptor holds the static, content-defined parameters of one ability.
// It is loaded once and shared read-only by every lifecycle built from it.
type Descriptor struct {
	Type  Type  `yaml:"type"`
	Logic Logic `yaml:"logic"`

	// ExecTimeSeconds is the windup before the mechanical effect commits.
	ExecTimeSeconds float64 `yaml:"exec_time_seconds"`
	// DurationSeconds bounds the active phase. Zero means the effect lasts
	// until it is broken or cancelled.
	DurationSeconds float64      `yaml:"duration_seconds"`
	BlockingMode    BlockingMode `yaml:"blocking_mode"`

	// Interruptible lets a new non-queued blocking request cancel this one.
	Interruptible bool `yaml:"interruptible"`
	// Exclusive cancels live instances of the same type before a new one
	// starts.
	Exclusive bool `yaml:"exclusive"`
	// ExclusiveGroup names a set of types that share one replicated effect,
	// such as the stealth flag. Starting a member cancels every live member
	// of the group, so the effect has a single writer.
	ExclusiveGroup string `yaml:"exclusive_group"`
	// LockMovement cancels voluntary movement at Start. Forced movement is
	// never touched.
	LockMovement bool `yaml:"lock_movement"`

	Script       string `yaml:"script"`
	ScriptSource []byte `yaml:"-"`
}

// Blocks reports whether the descriptor occupies the blocking slot when
// it starts.
func (d *Descriptor) Blocks() bool {
	return d != nil && d.BlockingMode != NonBlocking
}

// Displaces reports whether starting d cancels a live action built from
// other.
func (d *Descriptor) Displaces(other *Descriptor) bool {
	if d == nil || other == nil {
		return false
	}
	if d.Exclusive && d.Type == other.Type {
		return true
	}
	return d.ExclusiveGroup != "" && d.ExclusiveGroup == other.ExclusiveGroup
}

// Validate checks the fields every lifecycle relies on.
func (d *Descriptor) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil descriptor", ErrInvalidDescriptor)
	}
	if d.Type == "" {
		return fmt.Errorf("%w: empty type", ErrInvalidDescriptor)
	}
	if d.ExecTimeSeconds < 0 {
		return fmt.Errorf("%w: %s: exec_time_seconds %.3f < 0", ErrInvalidDescriptor, d.Type, d.ExecTimeSeconds)
	}
	if d.DurationSeconds < 0 {
		return fmt.Errorf("%w: %s: duration_seconds %.3f < 0", ErrInvalidDescriptor, d.Type, d.DurationSeconds)
	}
	switch d.BlockingMode {
	case BlockEntireDuration, BlockOnlyDuringExecTime, NonBlocking:
	default:
		return fmt.Errorf("%w: %s: blocking_mode %q", ErrInvalidDescriptor, d.Type, d.BlockingMode)
	}
	switch d.Logic {
	case LogicStealthMode, LogicEmote:
	case LogicScripted:
		if d.Script == "" {
			return fmt.Errorf("%w: %s: scripted logic needs a script", ErrInvalidDescriptor, d.Type)
		}
	case "":
		return fmt.Errorf("%w: %s: empty logic", ErrInvalidDescriptor, d.Type)
	}
	return nil
}

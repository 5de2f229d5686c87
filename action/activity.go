package action

import "fmt"

// Activity is a discrete gameplay event that may interrupt running actions.
type Activity int

const (
	ActivityNone Activity = iota
	AttackedByEnemy
	Healed
	StoppedChargingUp
	UsingAttackAction
	MovementAttempted
)

var activityNames = map[Activity]string{
	ActivityNone:      "none",
	AttackedByEnemy:   "attacked_by_enemy",
	Healed:            "healed",
	StoppedChargingUp: "stopped_charging_up",
	UsingAttackAction: "using_attack_action",
	MovementAttempted: "movement_attempted",
}

func (a Activity) String() string {
	if name, ok := activityNames[a]; ok {
		return name
	}
	return fmt.Sprintf("activity(%d)", int(a))
}

// ParseActivity resolves the snake_case name used in scripts and the
// control API.
func ParseActivity(name string) (Activity, error) {
	for a, n := range activityNames {
		if n == name && a != ActivityNone {
			return a, nil
		}
	}
	return ActivityNone, fmt.Errorf("%w: %q", ErrUnknownActivity, name)
}

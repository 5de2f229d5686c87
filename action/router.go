package action

// ActivityListener receives gameplay activity notifications.
type ActivityListener interface {
	OnGameplayActivity(kind Activity)
}

// Dispatch delivers kind to every listener exactly once. It works on a
// copy of listeners, so a listener ending itself (or another) during the
// call does not change who receives this event. Listeners must not rely
// on delivery order.
func Dispatch[L ActivityListener](kind Activity, listeners []L) int {
	if kind == ActivityNone || len(listeners) == 0 {
		return 0
	}
	snapshot := make([]L, len(listeners))
	copy(snapshot, listeners)
	for _, l := range snapshot {
		l.OnGameplayActivity(kind)
	}
	return len(snapshot)
}

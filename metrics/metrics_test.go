package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ActionAdmitted("stealth_mode")
	c.ActionAdmitted("stealth_mode")
	c.ActionRemoved()
	c.ActionRefused("emote_wave", ReasonBlocked)
	c.ActionQueued("emote_wave")
	c.ActionCancelled("stealth_mode")
	c.ActivityRouted("attacked_by_enemy")
	c.TypeCancelBroadcast("stealth_mode")
	c.MessageDropped("hub")
	c.ObserveTick(2 * time.Millisecond)

	cases := []struct {
		name string
		got  float64
		want float64
	}{
		{"admitted", testutil.ToFloat64(c.admitted.WithLabelValues("stealth_mode")), 2},
		{"active", testutil.ToFloat64(c.active), 1},
		{"refused", testutil.ToFloat64(c.refused.WithLabelValues("emote_wave", ReasonBlocked)), 1},
		{"queued", testutil.ToFloat64(c.queued.WithLabelValues("emote_wave")), 1},
		{"cancelled", testutil.ToFloat64(c.cancelled.WithLabelValues("stealth_mode")), 1},
		{"interrupts", testutil.ToFloat64(c.interrupts.WithLabelValues("attacked_by_enemy")), 1},
		{"type_cancels", testutil.ToFloat64(c.typeCancels.WithLabelValues("stealth_mode")), 1},
		{"dropped", testutil.ToFloat64(c.dropped.WithLabelValues("hub")), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Fatalf("got %v, want %v", tc.got, tc.want)
			}
		})
	}

	if n := testutil.CollectAndCount(c.tickDuration); n != 1 {
		t.Fatalf("expected one histogram series, got %d", n)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("expected registered families")
	}
}

func TestNilCollectorsAreSafe(t *testing.T) {
	var c *Collectors
	c.ActionAdmitted("x")
	c.ActionQueued("x")
	c.ActionRefused("x", ReasonBuild)
	c.ActionCancelled("x")
	c.ActionRemoved()
	c.ActivityRouted("x")
	c.TypeCancelBroadcast("x")
	c.MessageDropped("x")
	c.ObserveTick(time.Millisecond)
}

func TestNewWithoutRegistry(t *testing.T) {
	c := New(nil)
	c.ActionAdmitted("x")
	if got := testutil.ToFloat64(c.active); got != 1 {
		t.Fatalf("active = %v, want 1", got)
	}
}

package agent

import (
	"testing"
	"time"
)

func TestVector3Math(t *testing.T) {
	a := Vector3{X: 1, Y: 2, Z: 3}
	b := Vector3{X: 4, Y: 6, Z: 3}
	if d := a.DistanceTo(b); d != 5 {
		t.Fatalf("DistanceTo = %v, want 5", d)
	}
	sum := a.Add(Vector3{X: -1, Y: -2, Z: -3})
	if sum != (Vector3{}) {
		t.Fatalf("Add = %v, want zero vector", sum)
	}
}

func TestSensorDueThrottlesByUpdateRate(t *testing.T) {
	now := time.Now()
	s := &Sensor{ID: "eyes", UpdateRate: 2, Enabled: true} // 500ms floor

	if !s.Due(now) {
		t.Fatal("sensor with no reading should be due")
	}

	s.LastReading = &Reading{Timestamp: now}
	if s.Due(now.Add(300 * time.Millisecond)) {
		t.Fatal("sensor due 300ms after reading, want throttled until 500ms")
	}
	if !s.Due(now.Add(500 * time.Millisecond)) {
		t.Fatal("sensor not due at the 500ms boundary")
	}
}

func TestSensorDisabledOrZeroRateNeverDue(t *testing.T) {
	now := time.Now()
	disabled := &Sensor{ID: "off", UpdateRate: 1, Enabled: false}
	if disabled.Due(now) {
		t.Fatal("disabled sensor reported due")
	}
	zeroRate := &Sensor{ID: "still", UpdateRate: 0, Enabled: true}
	if zeroRate.Due(now) {
		t.Fatal("zero-rate sensor reported due")
	}
}

func TestGoalTerminal(t *testing.T) {
	cases := []struct {
		status GoalStatus
		want   bool
	}{
		{GoalPending, false},
		{GoalActive, false},
		{GoalCompleted, true},
		{GoalFailed, true},
		{GoalAbandoned, false},
	}
	for _, c := range cases {
		g := &Goal{Status: c.status}
		if g.Terminal() != c.want {
			t.Errorf("Terminal(%s) = %v, want %v", c.status, g.Terminal(), c.want)
		}
	}
}

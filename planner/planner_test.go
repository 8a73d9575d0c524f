package planner

import (
	"testing"

	"steppulse/dda"
	"steppulse/kinematics"
)

type fakeSubmitter struct {
	accept int
	calls  []Move
	busy   bool
}

func (f *fakeSubmitter) SubmitMove(travel [kinematics.AxisCount]float64, seconds float64) (dda.PrepStatus, error) {
	f.calls = append(f.calls, Move{Travel: travel, Seconds: seconds})
	if len(f.calls) > f.accept {
		return dda.PrepBufferFull, dda.PrepBufferFull
	}
	return dda.PrepOK, nil
}

func (f *fakeSubmitter) IsBusy() bool { return f.busy }

func TestPumpSubmitsUntilBufferFull(t *testing.T) {
	q := &Queue{}
	q.Enqueue(Move{Travel: [kinematics.AxisCount]float64{1, 0}, Seconds: 0.1})
	q.Enqueue(Move{Travel: [kinematics.AxisCount]float64{2, 0}, Seconds: 0.1})
	q.Enqueue(Move{Travel: [kinematics.AxisCount]float64{3, 0}, Seconds: 0.1})

	sub := &fakeSubmitter{accept: 1}
	submitted, err := q.Pump(sub)
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if submitted != 1 {
		t.Errorf("submitted = %d, want 1", submitted)
	}
	if q.Len() != 2 {
		t.Errorf("remaining queue len = %d, want 2", q.Len())
	}
}

func TestPumpDrainsWholeQueueWhenAccepted(t *testing.T) {
	q := &Queue{}
	q.Enqueue(Move{Travel: [kinematics.AxisCount]float64{1, 0}, Seconds: 0.1})
	q.Enqueue(Move{Travel: [kinematics.AxisCount]float64{2, 0}, Seconds: 0.1})

	sub := &fakeSubmitter{accept: 10}
	submitted, err := q.Pump(sub)
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if submitted != 2 || q.Len() != 0 {
		t.Errorf("submitted=%d len=%d, want 2/0", submitted, q.Len())
	}
}

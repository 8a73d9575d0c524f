// Package planner is a minimal move-queue harness used to exercise the
// dda pipeline end to end in tests and the cmd/sim demo. It intentionally
// does not compute trapezoidal velocity profiles or junction deviation:
// real motion planning is an external collaborator the dda core expects
// to receive already-segmented moves from (see spec.md's Non-goals).
// Trimmed down from standalone/planner/planner.go in the teacher repo,
// which did do full trapezoidal planning for its own simplified
// single-axis demo.
package planner

import (
	"errors"

	"steppulse/dda"
	"steppulse/kinematics"
)

// Move is one already-segmented line move: travel in length units over a
// fixed duration. Queue holds these in submission order.
type Move struct {
	Travel  [kinematics.AxisCount]float64
	Seconds float64
}

// Submitter is the subset of controller.MotorController's surface the
// planner needs; satisfied directly by *controller.MotorController.
type Submitter interface {
	SubmitMove(travel [kinematics.AxisCount]float64, seconds float64) (dda.PrepStatus, error)
	IsBusy() bool
}

// Queue is a simple FIFO of pending moves, drained into a Submitter one
// at a time as the pipeline frees up.
type Queue struct {
	pending []Move
}

// Enqueue appends a move to the queue.
func (q *Queue) Enqueue(m Move) {
	q.pending = append(q.pending, m)
}

// Len returns the number of moves still queued (not counting whatever is
// currently in flight inside the dda pipeline).
func (q *Queue) Len() int {
	return len(q.pending)
}

// Pump submits queued moves to sub until either the queue is empty or
// sub's Prep buffer is full. Call this from the same loop that calls
// controller.MotorController.Poll. Returns the number of moves
// successfully submitted.
func (q *Queue) Pump(sub Submitter) (int, error) {
	submitted := 0
	for len(q.pending) > 0 {
		m := q.pending[0]
		status, err := sub.SubmitMove(m.Travel, m.Seconds)
		switch status {
		case dda.PrepOK:
			q.pending = q.pending[1:]
			submitted++
		case dda.PrepBufferFull:
			return submitted, nil
		default:
			return submitted, errors.New("planner: move rejected: " + err.Error())
		}
	}
	return submitted, nil
}

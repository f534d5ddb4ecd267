package execute

import "time"

// cascadeStage identifies one step of the three-stage interrupt escalation
// (spec §4.2.1).
type cascadeStage int

const (
	stageSoftInterrupt cascadeStage = iota
	stageTerminate
	stageKill
)

func (s cascadeStage) String() string {
	switch s {
	case stageSoftInterrupt:
		return "soft-interrupt"
	case stageTerminate:
		return "terminate"
	case stageKill:
		return "kill"
	default:
		return "unknown"
	}
}

const (
	softInterruptBudget = 300 * time.Millisecond
	terminateBudget     = 200 * time.Millisecond
)

// signalSender delivers one cascade signal to the target process group.
// It is the only capability runCascade needs, which keeps the escalation
// state machine independent of exec.Cmd and unit-testable with a fake
// target that never exits (spec §8 boundary behavior: "child that ignores
// soft-interrupt").
type signalSender interface {
	softInterrupt() error
	terminate() error
	kill() error
}

// runCascade drives soft-interrupt -> terminate -> kill on the fixed
// budgets from spec §4.2.1, stopping as soon as done is closed. done must
// be closed exactly once, by the caller, when the target has exited by
// any means (natural exit mid-cascade counts). Returns the last stage
// that was actually sent; if the target was already dead when called,
// no signal is sent at all and the zero stage is returned with sent=false.
func runCascade(sender signalSender, done <-chan struct{}) (stage cascadeStage, sent bool) {
	select {
	case <-done:
		return stageSoftInterrupt, false
	default:
	}

	_ = sender.softInterrupt()
	if waitStage(done, softInterruptBudget) {
		return stageSoftInterrupt, true
	}

	_ = sender.terminate()
	if waitStage(done, terminateBudget) {
		return stageTerminate, true
	}

	_ = sender.kill()
	<-done // unbounded: block until reaped
	return stageKill, true
}

func waitStage(done <-chan struct{}, budget time.Duration) bool {
	select {
	case <-done:
		return true
	case <-time.After(budget):
		return false
	}
}

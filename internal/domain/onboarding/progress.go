// Package onboarding holds the creator-onboarding progress model: which of
// the six steps are done, which step renders next, and how backend snapshots
// and local completions fold into one consistent state.
package onboarding

import (
	"errors"
	"math"
)

// StepCount is the number of sequential onboarding steps.
const StepCount = 6

// Step names, kept in display order.
const (
	StepBasicProfile        = 1
	StepSocialMedia         = 2
	StepNichePreferences    = 3
	StepPortfolio           = 4
	StepVerification        = 5
	StepPlatformPreferences = 6
)

var (
	ErrInvalidStep = errors.New("onboarding: step out of range")
)

// Snapshot is a backend-provided read of onboarding progress at a point in
// time, as returned by the status endpoint.
type Snapshot struct {
	CurrentStep        int   `json:"current_step"`
	CompletedSteps     []int `json:"completed_steps"`
	ProgressPercentage int   `json:"progress_percentage"`
}

// Progress derives and mutates the onboarding completion state. It is owned
// by a single logical session and is not safe for concurrent mutation; only
// one flow drives it at a time.
type Progress struct {
	current   int
	completed map[int]bool
	percent   int
	stepData  map[int]any
}

// NewProgress returns the first-time-user default state: step 1, nothing
// completed, 0% progress. The absence of a backend snapshot is not an error.
func NewProgress() *Progress {
	return &Progress{
		current:   1,
		completed: make(map[int]bool),
		stepData:  make(map[int]any),
	}
}

// FromSnapshot adopts a backend-authoritative snapshot. When the snapshot's
// declared current step is inconsistent with its declared percentage (the
// percentage implies further progress), the current step is recomputed from
// the percentage: the two fields can be produced by different backend code
// paths and must not be allowed to silently disagree.
func FromSnapshot(snap Snapshot) *Progress {
	p := NewProgress()
	for _, step := range snap.CompletedSteps {
		if step >= 1 && step <= StepCount {
			p.completed[step] = true
		}
	}
	if snap.CurrentStep >= 1 {
		p.current = snap.CurrentStep
	}
	if snap.ProgressPercentage > 0 {
		p.percent = min(snap.ProgressPercentage, 100)
	}
	if implied := stepFromPercentage(p.percent); implied > p.current {
		p.current = implied
	}
	p.normalize()
	return p
}

// stepFromPercentage recovers a current step from a progress percentage,
// assuming six equal-weighted steps. If the backend's step weighting ever
// changes this is the one place to adjust.
func stepFromPercentage(percent int) int {
	if percent <= 0 {
		return 1
	}
	step := int(math.Floor(float64(percent)/(100.0/StepCount))) + 1
	return min(step, StepCount)
}

// normalize restores the structural invariants after any mutation: the
// completed set never contains the current step, and a completed prefix
// {1..N} forces the current step past N.
func (p *Progress) normalize() {
	for step := 1; step <= StepCount; step++ {
		if !p.completed[step] {
			break
		}
		if p.current <= step {
			p.current = step + 1
		}
	}
	for p.current <= StepCount && p.completed[p.current] {
		p.current++
	}
	if p.current > StepCount+1 {
		p.current = StepCount + 1
	}
}

// CurrentStep returns the step to render. Once onboarding is complete it
// returns StepCount+1, a value that is never a valid navigation target.
func (p *Progress) CurrentStep() int { return p.current }

// Percentage returns the progress percentage, monotonically non-decreasing
// across the session.
func (p *Progress) Percentage() int { return p.percent }

// CompletedSteps returns the completed step numbers in ascending order.
func (p *Progress) CompletedSteps() []int {
	steps := make([]int, 0, len(p.completed))
	for step := 1; step <= StepCount; step++ {
		if p.completed[step] {
			steps = append(steps, step)
		}
	}
	return steps
}

// IsComplete reports whether all steps are done and the flow is terminal.
func (p *Progress) IsComplete() bool {
	return len(p.completed) == StepCount
}

// NextStep returns the step to render after the current one, or false when
// onboarding is complete and there is no next step.
func (p *Progress) NextStep() (int, bool) {
	if p.IsComplete() || p.current > StepCount {
		return 0, false
	}
	return p.current, true
}

// StepData returns the locally recorded submission data for a step.
func (p *Progress) StepData(step int) (any, bool) {
	data, ok := p.stepData[step]
	return data, ok
}

// CompleteStep records step n as done with its submitted data. Re-completing
// an already-completed step is idempotent on the completed set and never
// regresses the percentage. Completing the final step moves the flow to the
// terminal state at 100%.
func (p *Progress) CompleteStep(step int, data any) error {
	if step < 1 || step > StepCount {
		return ErrInvalidStep
	}
	p.stepData[step] = data
	p.completed[step] = true

	if pct := percentageFor(len(p.completed)); pct > p.percent {
		p.percent = pct
	}
	if step < StepCount {
		p.current = step + 1
	} else {
		p.current = StepCount + 1
		p.percent = 100
	}
	p.normalize()
	return nil
}

// percentageFor converts a completed-step count into a rounded percentage.
func percentageFor(completed int) int {
	return int(math.Round(100 * float64(completed) / StepCount))
}

// NavigateTo moves the current step for manual back/forward navigation. A
// move is allowed to any step up to one past the highest completed step;
// anything else is a no-op so the UI cannot skip ahead of acknowledged
// progress. Returns whether the move happened.
func (p *Progress) NavigateTo(step int) bool {
	if step < 1 || step > StepCount {
		return false
	}
	if step > p.highestCompleted()+1 {
		return false
	}
	// Revisiting a completed step is allowed; the completed set and the
	// percentage are untouched.
	p.current = step
	return true
}

func (p *Progress) highestCompleted() int {
	highest := 0
	for step := range p.completed {
		if step > highest {
			highest = step
		}
	}
	return highest
}

// ToSnapshot exports the state in the backend's snapshot shape, used by the
// local cache so a reloaded client resumes from last-known progress.
func (p *Progress) ToSnapshot() Snapshot {
	return Snapshot{
		CurrentStep:        p.current,
		CompletedSteps:     p.CompletedSteps(),
		ProgressPercentage: p.percent,
	}
}

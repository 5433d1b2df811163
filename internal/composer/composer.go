// Package composer drives the four-step report creation wizard: engagement
// details are collected step by step with per-step gating, then the report
// is created and its selected catalog findings are seeded concurrently.
package composer

import (
	"strings"
)

// Step identifies a wizard step. Steps advance strictly in order; going
// back never discards entered data.
type Step int

const (
	StepOrganization Step = iota + 1
	StepApplication
	StepSchedule
	StepFindings

	firstStep = StepOrganization
	lastStep  = StepFindings
)

func (s Step) String() string {
	switch s {
	case StepOrganization:
		return "Organization"
	case StepApplication:
		return "Application"
	case StepSchedule:
		return "Schedule"
	case StepFindings:
		return "Findings"
	default:
		return "Unknown"
	}
}

// State is the wizard's accumulated input. Zero value starts at step one
// with nothing filled in.
type State struct {
	step Step

	// Step 1: exactly one of ExistingClient or NewClient must be set.
	ExistingClient string
	NewClient      string

	// Step 2.
	ApplicationName string
	AssessmentType  string
	Targets         []string
	ToolsUsed       []string

	// Step 3.
	TestLocation string
	StartDate    string
	EndDate      string

	// Step 4: catalog definition ids selected for seeding.
	SelectedDefinitions []int64
}

// New returns a wizard positioned at the first step.
func New() *State {
	return &State{step: firstStep}
}

func (st *State) Step() Step {
	if st.step == 0 {
		return firstStep
	}
	return st.step
}

// ClientName returns the organization the report will be filed under.
func (st *State) ClientName() string {
	if strings.TrimSpace(st.ExistingClient) != "" {
		return strings.TrimSpace(st.ExistingClient)
	}
	return strings.TrimSpace(st.NewClient)
}

// SelectExistingClient picks a known organization and clears any new-name
// entry, keeping the two mutually exclusive.
func (st *State) SelectExistingClient(name string) {
	st.ExistingClient = name
	if strings.TrimSpace(name) != "" {
		st.NewClient = ""
	}
}

// EnterNewClient records a new organization name and clears any existing
// selection.
func (st *State) EnterNewClient(name string) {
	st.NewClient = name
	if strings.TrimSpace(name) != "" {
		st.ExistingClient = ""
	}
}

// CanAdvance reports whether the current step's required input is present.
// The returned reason is empty when advancing is allowed.
func (st *State) CanAdvance() (bool, string) {
	switch st.Step() {
	case StepOrganization:
		has := strings.TrimSpace(st.ExistingClient) != ""
		entered := strings.TrimSpace(st.NewClient) != ""
		if !has && !entered {
			return false, "select an organization or enter a new one"
		}
		if has && entered {
			return false, "choose either an existing organization or a new one, not both"
		}
		return true, ""
	case StepApplication:
		if strings.TrimSpace(st.ApplicationName) == "" {
			return false, "application name is required"
		}
		return true, ""
	case StepSchedule:
		if strings.TrimSpace(st.StartDate) == "" || strings.TrimSpace(st.EndDate) == "" {
			return false, "both start and end dates are required"
		}
		return true, ""
	case StepFindings:
		return true, ""
	}
	return false, "unknown step"
}

// Advance moves to the next step when gating allows it. Returns the step
// now current and whether the move happened.
func (st *State) Advance() (Step, bool) {
	ok, _ := st.CanAdvance()
	if !ok || st.Step() == lastStep {
		return st.Step(), false
	}
	st.step = st.Step() + 1
	return st.step, true
}

// Back moves one step toward the start. All entered data is preserved so
// returning forward shows the same values.
func (st *State) Back() Step {
	if st.Step() > firstStep {
		st.step = st.Step() - 1
	}
	return st.Step()
}

// AtEnd reports whether the wizard sits on the final review step.
func (st *State) AtEnd() bool {
	return st.Step() == lastStep
}

package composer

import (
	"strings"
	"testing"
)

func TestOrganizationStepRequiresExactlyOneChoice(t *testing.T) {
	st := New()

	if ok, reason := st.CanAdvance(); ok || reason == "" {
		t.Fatalf("empty organization step must gate with a reason, got ok=%v reason=%q", ok, reason)
	}

	st.SelectExistingClient("Acme Corp")
	if ok, _ := st.CanAdvance(); !ok {
		t.Fatal("existing client selection should allow advancing")
	}

	// Typing a new name clears the selection; the two stay mutually exclusive.
	st.EnterNewClient("Globex")
	if st.ExistingClient != "" {
		t.Fatalf("entering a new client should clear the selection, got %q", st.ExistingClient)
	}
	if st.ClientName() != "Globex" {
		t.Fatalf("client name should follow the latest entry, got %q", st.ClientName())
	}

	st.SelectExistingClient("Acme Corp")
	if st.NewClient != "" {
		t.Fatalf("selecting an existing client should clear the new name, got %q", st.NewClient)
	}

	// Both filled at once is a gate failure, not a silent pick.
	st.NewClient = "Globex"
	ok, reason := st.CanAdvance()
	if ok {
		t.Fatal("both choices filled must not advance")
	}
	if !strings.Contains(reason, "not both") {
		t.Fatalf("reason should explain the conflict, got %q", reason)
	}
}

func TestAdvanceGatesEachStep(t *testing.T) {
	st := New()
	st.SelectExistingClient("Acme Corp")

	if step, moved := st.Advance(); !moved || step != StepApplication {
		t.Fatalf("expected to reach Application, got %v moved=%v", step, moved)
	}

	if _, moved := st.Advance(); moved {
		t.Fatal("application step must gate on the name")
	}
	st.ApplicationName = "Billing Portal"
	if step, moved := st.Advance(); !moved || step != StepSchedule {
		t.Fatalf("expected to reach Schedule, got %v moved=%v", step, moved)
	}

	st.StartDate = "2026-08-01"
	if ok, reason := st.CanAdvance(); ok || !strings.Contains(reason, "both") {
		t.Fatalf("one date is not enough, got ok=%v reason=%q", ok, reason)
	}
	st.EndDate = "2026-08-14"
	if step, moved := st.Advance(); !moved || step != StepFindings {
		t.Fatalf("expected to reach Findings, got %v moved=%v", step, moved)
	}

	if !st.AtEnd() {
		t.Fatal("findings is the final step")
	}
	if _, moved := st.Advance(); moved {
		t.Fatal("there is no step past Findings")
	}
}

func TestBackPreservesEnteredData(t *testing.T) {
	st := New()
	st.SelectExistingClient("Acme Corp")
	st.Advance()
	st.ApplicationName = "Billing Portal"
	st.Targets = []string{"https://billing.example.com"}
	st.Advance()
	st.StartDate = "2026-08-01"
	st.EndDate = "2026-08-14"

	if step := st.Back(); step != StepApplication {
		t.Fatalf("expected Application after Back, got %v", step)
	}
	if step := st.Back(); step != StepOrganization {
		t.Fatalf("expected Organization after Back, got %v", step)
	}
	if step := st.Back(); step != StepOrganization {
		t.Fatalf("Back at the first step stays put, got %v", step)
	}

	if st.ApplicationName != "Billing Portal" || st.StartDate != "2026-08-01" || st.EndDate != "2026-08-14" {
		t.Fatalf("going back must not discard entered data: %+v", st)
	}
	if len(st.Targets) != 1 {
		t.Fatalf("targets lost on Back: %v", st.Targets)
	}
}

func TestStepNames(t *testing.T) {
	for step, want := range map[Step]string{
		StepOrganization: "Organization",
		StepApplication:  "Application",
		StepSchedule:     "Schedule",
		StepFindings:     "Findings",
	} {
		if got := step.String(); got != want {
			t.Errorf("Step(%d).String() = %q, want %q", step, got, want)
		}
	}
}

package models

import "testing"

func TestWizardStep_Navigation(t *testing.T) {
	if StepGuide.Index() != 0 || StepPayment.Index() != len(WizardSteps)-1 {
		t.Fatal("unexpected step ordinals")
	}
	if _, ok := StepGuide.Prev(); ok {
		t.Error("guide has no previous step")
	}
	if _, ok := StepPayment.Next(); ok {
		t.Error("payment has no next step")
	}
	for i := 1; i < len(WizardSteps); i++ {
		prev, ok := WizardSteps[i].Prev()
		if !ok || prev != WizardSteps[i-1] {
			t.Errorf("%s.Prev() = %s, want %s", WizardSteps[i], prev, WizardSteps[i-1])
		}
	}
	if WizardStep("review").Valid() {
		t.Error("unknown step reported valid")
	}
	if StepTerms.Label() != "TERMS" {
		t.Errorf("Label() = %q", StepTerms.Label())
	}
}

func TestParseWizardStep(t *testing.T) {
	tests := []struct {
		in      string
		want    WizardStep
		wantErr bool
	}{
		{"PAYMENT", StepPayment, false},
		{" basics ", StepBasics, false},
		{"checkout", "", true},
	}
	for _, tt := range tests {
		got, err := ParseWizardStep(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseWizardStep(%q) = %q, %v", tt.in, got, err)
		}
	}
}

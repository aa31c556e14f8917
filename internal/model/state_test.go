package model

import "testing"

func TestPhase_InFlight(t *testing.T) {
	tests := []struct {
		phase    Phase
		expected bool
	}{
		{PhaseIdle, false},
		{PhaseSubmitting, true},
		{PhaseAwaitingResult, true},
		{PhaseSucceeded, false},
		{PhaseFailed, false},
	}

	for _, test := range tests {
		if result := test.phase.InFlight(); result != test.expected {
			t.Errorf("Phase(%s).InFlight() = %v, expected %v", test.phase, result, test.expected)
		}
	}
}

func TestPhase_Resolved(t *testing.T) {
	tests := []struct {
		phase    Phase
		expected bool
	}{
		{PhaseIdle, false},
		{PhaseSubmitting, false},
		{PhaseAwaitingResult, false},
		{PhaseSucceeded, true},
		{PhaseFailed, true},
	}

	for _, test := range tests {
		if result := test.phase.Resolved(); result != test.expected {
			t.Errorf("Phase(%s).Resolved() = %v, expected %v", test.phase, result, test.expected)
		}
	}
}

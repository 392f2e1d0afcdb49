package types

import "testing"

func TestConstants(t *testing.T) {
	if MaxInputChars != 1000 {
		t.Errorf("expected MaxInputChars to be 1000, got %d", MaxInputChars)
	}
	if MaxOutputChars != 2000 {
		t.Errorf("expected MaxOutputChars to be 2000, got %d", MaxOutputChars)
	}
	if DefaultListLimit != 10 {
		t.Errorf("expected DefaultListLimit to be 10, got %d", DefaultListLimit)
	}
}

func TestListLimits_Reasonable(t *testing.T) {
	if MaxListLimit <= DefaultListLimit {
		t.Error("expected MaxListLimit to be greater than DefaultListLimit")
	}
	if FreeVisibleEntries > DefaultListLimit {
		t.Error("free tier should not see more entries than a default page holds")
	}
}

package ids

import "testing"

func TestNextIsMonotonicAndPadded(t *testing.T) {
	m := NewMinter(12)

	first := m.Next(Order)
	second := m.Next(Order)

	if first != "O-000000000001" {
		t.Fatalf("first order id = %q, want O-000000000001", first)
	}
	if second != "O-000000000002" {
		t.Fatalf("second order id = %q, want O-000000000002", second)
	}

	agentID := m.Next(Agent)
	if agentID != "A-000000000001" {
		t.Fatalf("first agent id = %q, want A-000000000001", agentID)
	}
}

func TestNextUnknownKind(t *testing.T) {
	m := NewMinter(12)
	if id := m.Next(Kind("BOGUS")); id != "" {
		t.Fatalf("unknown kind id = %q, want empty string", id)
	}
}

func TestCountersAreIndependent(t *testing.T) {
	m := NewMinter(4)
	m.Next(Order)
	m.Next(Order)
	agentID := m.Next(Agent)
	if agentID != "A-0001" {
		t.Fatalf("agent counter leaked order increments: got %q", agentID)
	}
}

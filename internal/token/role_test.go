package token

import "testing"

func TestRoleFromMetadata(t *testing.T) {
	cases := []struct {
		metadata string
		role     Role
		ok       bool
	}{
		{`{"role":"host"}`, RoleHost, true},
		{`{"role":"listener","name":"x"}`, RoleListener, true},
		{`{"role":"admin"}`, "", false},
		{`{"role":7}`, "", false},
		{`{"other":"host"}`, "", false},
		{`not json`, "", false},
		{`"host"`, "", false},
		{``, "", false},
	}
	for _, tc := range cases {
		role, ok := RoleFromMetadata(tc.metadata)
		if role != tc.role || ok != tc.ok {
			t.Errorf("RoleFromMetadata(%q) = (%q, %v), want (%q, %v)", tc.metadata, role, ok, tc.role, tc.ok)
		}
	}
}

func TestEffectiveRoleDefaultsToListener(t *testing.T) {
	if got := EffectiveRole(`{broken`); got != RoleListener {
		t.Fatalf("expected listener, got %q", got)
	}
	if got := EffectiveRole(`{"role":"host"}`); got != RoleHost {
		t.Fatalf("expected host, got %q", got)
	}
}

package token

import (
	"errors"
	"testing"
)

func TestBuildGrantRolePolicy(t *testing.T) {
	host := BuildGrant("demo", RoleHost, PolicyRole)
	if !host.RoomJoin || host.Room != "demo" {
		t.Fatalf("expected room join for demo, got %+v", host)
	}
	for name, flag := range map[string]*bool{
		"canPublish":           host.CanPublish,
		"canSubscribe":         host.CanSubscribe,
		"canPublishData":       host.CanPublishData,
		"canUpdateOwnMetadata": host.CanUpdateOwnMetadata,
	} {
		if flag == nil || !*flag {
			t.Errorf("host should have %s", name)
		}
	}

	listener := BuildGrant("demo", RoleListener, PolicyRole)
	if listener.CanPublish == nil || *listener.CanPublish {
		t.Fatalf("listener must have explicit canPublish=false")
	}
	if listener.CanSubscribe == nil || !*listener.CanSubscribe {
		t.Fatalf("listener should subscribe")
	}
}

func TestBuildGrantBasicPolicy(t *testing.T) {
	grant := BuildGrant("demo", RoleHost, PolicyBasic)
	if !grant.RoomJoin || grant.CanUpdateOwnMetadata == nil || !*grant.CanUpdateOwnMetadata {
		t.Fatalf("basic policy must allow join and metadata updates: %+v", grant)
	}
	if grant.CanPublish != nil || grant.CanSubscribe != nil || grant.CanPublishData != nil {
		t.Fatalf("basic policy must not set role based flags: %+v", grant)
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy(""); err != nil || p != PolicyRole {
		t.Fatalf("empty policy should be role, got %q %v", p, err)
	}
	if p, err := ParsePolicy(" Basic "); err != nil || p != PolicyBasic {
		t.Fatalf("expected basic, got %q %v", p, err)
	}
	if _, err := ParsePolicy("everyone"); !errors.Is(err, ErrUnknownPolicy) {
		t.Fatalf("expected ErrUnknownPolicy, got %v", err)
	}
}

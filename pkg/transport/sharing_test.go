package transport

import (
	"fmt"
	"net"
	"testing"
)

func fakeListen(fail bool) func(network, address string) (net.Listener, error) {
	return func(network, address string) (net.Listener, error) {
		if fail {
			return nil, &net.OpError{Op: "listen", Net: network, Err: fmt.Errorf("address already in use")}
		}
		return net.Listen("tcp", "127.0.0.1:0")
	}
}

func TestClaimUpstreamWinsWhenListenSucceeds(t *testing.T) {
	key := SharingKey{Host: "example.com", Port: 22, Username: "alice"}
	res, err := ClaimUpstream(key, fakeListen(false))
	if err != nil {
		t.Fatalf("ClaimUpstream: %v", err)
	}
	if res.Role != RoleUpstream {
		t.Fatalf("Role = %v, want RoleUpstream", res.Role)
	}
	if res.Listener == nil {
		t.Fatal("expected a non-nil Listener for the upstream role")
	}
	res.Listener.Close()
}

func TestClaimUpstreamBecomesDownstreamOnAddrInUse(t *testing.T) {
	key := SharingKey{Host: "example.com", Port: 22, Username: "alice"}
	res, err := ClaimUpstream(key, fakeListen(true))
	if err != nil {
		t.Fatalf("ClaimUpstream: %v", err)
	}
	if res.Role != RoleDownstream {
		t.Fatalf("Role = %v, want RoleDownstream", res.Role)
	}
	if res.Listener != nil {
		t.Fatal("expected nil Listener for the downstream role")
	}
}

func TestDownstreamChannelRemapRoundTrip(t *testing.T) {
	remap := NewDownstreamChannelRemap()
	up := remap.Assign(7)

	got, ok := remap.ToUpstream(7)
	if !ok || got != up {
		t.Fatalf("ToUpstream(7) = %d, %v; want %d, true", got, ok, up)
	}
	back, ok := remap.ToDownstream(up)
	if !ok || back != 7 {
		t.Fatalf("ToDownstream(%d) = %d, %v; want 7, true", up, back, ok)
	}

	remap.Release(7)
	if _, ok := remap.ToUpstream(7); ok {
		t.Fatal("expected mapping to be gone after Release")
	}
	if _, ok := remap.ToDownstream(up); ok {
		t.Fatal("expected reverse mapping to be gone after Release")
	}
}

package transport

import "testing"

func TestMachineHappyPathTransitions(t *testing.T) {
	m := &Machine{State: StateVersionExchanged}

	steps := []struct {
		pkt  Packet
		want ConnectionState
	}{
		{Packet{Type: MsgKexInit}, StateKexInit},
		{Packet{Type: MsgKexInit}, StateKexAlgorithm}, // KexInit -> KexAlgorithm unconditionally
		{Packet{Type: MsgKexDHInit}, StateKexAlgorithm},
		{Packet{Type: MsgNewKeys}, StateNewKeys},
		{Packet{Type: MsgUserauthReq}, StateAuthenticating},
		{Packet{Type: MsgUserauthReq}, StateAuthenticating},
		{Packet{Type: MsgChannelOpen}, StateConnected},
	}

	for i, s := range steps {
		res := m.Step(s.pkt)
		if res.Err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, res.Err)
		}
		if res.Next != s.want {
			t.Fatalf("step %d: state = %v, want %v", i, res.Next, s.want)
		}
	}
}

func TestMachineRekeyRoundTrip(t *testing.T) {
	m := &Machine{State: StateConnected}
	m.RequestRekey()
	if m.State != StateRekeying {
		t.Fatalf("RequestRekey: state = %v, want Rekeying", m.State)
	}

	res := m.Step(Packet{Type: MsgNewKeys})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Next != StateConnected {
		t.Fatalf("state = %v, want Connected after rekey NEWKEYS", res.Next)
	}
}

func TestMachinePeerInitiatedRekey(t *testing.T) {
	m := &Machine{State: StateConnected}
	res := m.Step(Packet{Type: MsgKexInit})
	if res.Next != StateRekeying {
		t.Fatalf("state = %v, want Rekeying on peer KEXINIT", res.Next)
	}
}

func TestMachineRejectsUnexpectedMessage(t *testing.T) {
	m := &Machine{State: StateVersionExchanged}
	res := m.Step(Packet{Type: MsgNewKeys})
	if res.Err == nil {
		t.Fatal("expected error for NEWKEYS before KEXINIT")
	}
	if res.Next != StateVersionExchanged {
		t.Fatalf("state should not advance on rejected message, got %v", res.Next)
	}
}

func TestMachineTerminated(t *testing.T) {
	m := &Machine{State: StateConnected}
	m.Terminate()
	res := m.Step(Packet{Type: MsgChannelOpen})
	if res.Err == nil {
		t.Fatal("expected error after termination")
	}
	if res.Next != StateTerminated {
		t.Fatalf("state = %v, want Terminated", res.Next)
	}
}

func TestMachinePreambleRequiresExternalVersionExchange(t *testing.T) {
	m := &Machine{State: StatePreamble}
	res := m.Step(Packet{Type: MsgKexInit})
	if res.Err == nil {
		t.Fatal("expected error: version exchange must complete before Step")
	}
}

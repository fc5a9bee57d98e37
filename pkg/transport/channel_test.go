package transport

import "testing"

func TestChannelSplitForSendRespectsMaxPacketAndWindow(t *testing.T) {
	ch := NewChannel(ChannelKindSession, 0)
	ch.Confirm(1, 10, 4) // tiny window and max-packet to force splitting

	data := make([]byte, 25)
	for i := range data {
		data[i] = byte(i)
	}

	chunks, remainder := ch.SplitForSend(data)
	var sent int
	for _, c := range chunks {
		if len(c) > 4 {
			t.Fatalf("chunk of %d bytes exceeds max-packet 4", len(c))
		}
		sent += len(c)
	}
	if sent != 10 {
		t.Fatalf("sent %d bytes, want 10 (window limit)", sent)
	}
	if len(remainder) != 15 {
		t.Fatalf("remainder = %d bytes, want 15", len(remainder))
	}
	if ch.CanSend() {
		t.Fatal("window should be exhausted")
	}
}

func TestChannelWindowAdjustRestoresSend(t *testing.T) {
	ch := NewChannel(ChannelKindSession, 0)
	ch.Confirm(1, 0, 100)
	if ch.CanSend() {
		t.Fatal("window should start at 0 after Confirm(..., 0, ...)")
	}
	ch.NoteSendWindowAdjust(50)
	if !ch.CanSend() {
		t.Fatal("window should be restored after adjust")
	}
}

func TestChannelRecvWindowAdjustThreshold(t *testing.T) {
	ch := NewChannel(ChannelKindSession, 0)
	// recv window starts at defaultWindowSize; consume just over half.
	adjust, err := ch.NoteDataReceived(defaultWindowSize/2 + 1)
	if err != nil {
		t.Fatalf("NoteDataReceived: %v", err)
	}
	if adjust == 0 {
		t.Fatal("expected a window-adjust once recv window drops below half")
	}
}

func TestChannelRecvWindowOverflowRejected(t *testing.T) {
	ch := NewChannel(ChannelKindSession, 0)
	if _, err := ch.NoteDataReceived(defaultWindowSize + 1); err == nil {
		t.Fatal("expected error for data exceeding recv window")
	}
}

func TestChannelHalfCloseOrdering(t *testing.T) {
	ch := NewChannel(ChannelKindSession, 0)
	if err := ch.SendClose(); err == nil {
		t.Fatal("expected error sending CLOSE before EOF")
	}
	if err := ch.SendEOF(); err != nil {
		t.Fatalf("SendEOF: %v", err)
	}
	if err := ch.SendClose(); err != nil {
		t.Fatalf("SendClose: %v", err)
	}
	if ch.Destroyed() {
		t.Fatal("channel should not be destroyed until CLOSE received too")
	}
	ch.NoteCloseReceived()
	if !ch.Destroyed() {
		t.Fatal("channel should be destroyed once both CLOSEs happened")
	}
}

func TestChannelTableOpenLookupRemove(t *testing.T) {
	table := NewChannelTable()
	ch1 := table.Open(ChannelKindSession)
	ch2 := table.Open(ChannelKindDirectTCPIP)
	if ch1.LocalID == ch2.LocalID {
		t.Fatal("expected distinct local ids")
	}
	if _, ok := table.Lookup(ch1.LocalID); !ok {
		t.Fatal("expected to find ch1")
	}
	table.Remove(ch1.LocalID)
	if _, ok := table.Lookup(ch1.LocalID); ok {
		t.Fatal("expected ch1 to be gone after Remove")
	}
}

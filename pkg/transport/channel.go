package transport

import (
	"encoding/binary"
	"fmt"
)

// Connection-layer message opcodes (RFC 4254).
const (
	MsgChannelOpen         = 90
	MsgChannelOpenConfirm  = 91
	MsgChannelOpenFailure  = 92
	MsgChannelWindowAdjust = 93
	MsgChannelData         = 94
	MsgChannelExtendedData = 95
	MsgChannelEOF          = 96
	MsgChannelClose        = 97
	MsgChannelRequest      = 98
	MsgChannelSuccess      = 99
	MsgChannelFailure      = 100
)

// ChannelKind names a channel-open request type.
type ChannelKind string

const (
	ChannelKindSession        ChannelKind = "session"
	ChannelKindDirectTCPIP    ChannelKind = "direct-tcpip"
	ChannelKindForwardedTCPIP ChannelKind = "forwarded-tcpip"
	ChannelKindX11            ChannelKind = "x11"
	ChannelKindAuthAgent      ChannelKind = "auth-agent@openssh.com"
)

// defaultWindowSize and defaultMaxPacket are the initial flow-control
// parameters offered on channels this side opens, matching common
// practice for interactive SSH-2 implementations.
const (
	defaultWindowSize = 2 * 1024 * 1024
	defaultMaxPacket  = 32 * 1024
)

// halfCloseState tracks the independent EOF/CLOSE bookkeeping each
// side of a channel goes through; spec 4.5 requires EOF(side) before
// CLOSE(side), and destruction only once both a CLOSE has been sent
// and one received.
type halfCloseState struct {
	eofSent, eofReceived     bool
	closeSent, closeReceived bool
}

func (h *halfCloseState) destroyed() bool {
	return h.closeSent && h.closeReceived
}

// Channel is one multiplexed SSH-2 channel: local/remote ids, the two
// independent flow-control windows, and ordered half-close state, per
// the connection layer contract exposed to session/sftp consumers.
type Channel struct {
	Kind ChannelKind

	LocalID  uint32
	RemoteID uint32

	sendWindow    uint32
	maxPacket     uint32 // the peer's max-packet, bounding our writes
	recvWindow    uint32
	recvWindowMax uint32 // the initial value we advertised, for the half-threshold check
	ourMaxPacket  uint32 // our own advertised max-packet, bounding what we accept

	half halfCloseState
}

// NewChannel constructs a locally-opened channel awaiting
// CHANNEL_OPEN_CONFIRMATION; RemoteID and the peer's send parameters
// are filled in once that arrives via Confirm.
func NewChannel(kind ChannelKind, localID uint32) *Channel {
	return &Channel{
		Kind:          kind,
		LocalID:       localID,
		recvWindow:    defaultWindowSize,
		recvWindowMax: defaultWindowSize,
		ourMaxPacket:  defaultMaxPacket,
	}
}

// Confirm records the peer's half of channel setup once
// CHANNEL_OPEN_CONFIRMATION (or the response to an incoming
// CHANNEL_OPEN) is known.
func (c *Channel) Confirm(remoteID, peerWindow, peerMaxPacket uint32) {
	c.RemoteID = remoteID
	c.sendWindow = peerWindow
	c.maxPacket = peerMaxPacket
}

// CanSend reports whether at least one byte can be sent without
// exceeding the peer's advertised receive window.
func (c *Channel) CanSend() bool { return c.sendWindow > 0 }

// SplitForSend chops data into chunks no larger than the peer's
// max-packet and no larger than the currently available send window,
// per spec 4.5's "data larger than max-packet must be split" rule.
// Returns the chunks actually sendable now (possibly fewer bytes than
// len(data) if the window is exhausted partway through) and the
// unsent remainder.
func (c *Channel) SplitForSend(data []byte) (chunks [][]byte, remainder []byte) {
	maxChunk := c.maxPacket
	if maxChunk == 0 {
		maxChunk = defaultMaxPacket
	}
	for len(data) > 0 && c.sendWindow > 0 {
		n := uint32(len(data))
		if n > maxChunk {
			n = maxChunk
		}
		if n > c.sendWindow {
			n = c.sendWindow
		}
		chunks = append(chunks, data[:n])
		data = data[n:]
		c.sendWindow -= n
	}
	return chunks, data
}

// NoteSendWindowAdjust applies an incoming CHANNEL_WINDOW_ADJUST,
// restoring our ability to send.
func (c *Channel) NoteSendWindowAdjust(n uint32) { c.sendWindow += n }

// NoteDataReceived accounts for n bytes of incoming CHANNEL_DATA,
// shrinking our advertised recv window. Returns the window-adjust
// amount to send back, or 0 if none is due yet: spec 4.5 says to
// restore the window once it drops below half its initial value.
func (c *Channel) NoteDataReceived(n uint32) (adjust uint32, err error) {
	if n > c.recvWindow {
		return 0, fmt.Errorf("transport: channel %d received %d bytes exceeding recv window %d", c.LocalID, n, c.recvWindow)
	}
	c.recvWindow -= n
	if c.recvWindow < c.recvWindowMax/2 {
		adjust = c.recvWindowMax - c.recvWindow
		c.recvWindow = c.recvWindowMax
	}
	return adjust, nil
}

// RecvMaxPacket is the max-packet we advertised for incoming data.
func (c *Channel) RecvMaxPacket() uint32 { return c.ourMaxPacket }

// SendEOF marks our half of the channel as EOF, returning an error if
// called twice.
func (c *Channel) SendEOF() error {
	if c.half.eofSent {
		return fmt.Errorf("transport: channel %d: EOF already sent", c.LocalID)
	}
	c.half.eofSent = true
	return nil
}

// NoteEOFReceived records the peer's EOF.
func (c *Channel) NoteEOFReceived() { c.half.eofReceived = true }

// SendClose marks our CLOSE as sent; per spec 4.5 this must only be
// called after SendEOF, and the channel is destroyed once both a
// CLOSE has been sent and one received.
func (c *Channel) SendClose() error {
	if !c.half.eofSent {
		return fmt.Errorf("transport: channel %d: CLOSE sent before EOF", c.LocalID)
	}
	c.half.closeSent = true
	return nil
}

// NoteCloseReceived records the peer's CLOSE.
func (c *Channel) NoteCloseReceived() { c.half.closeReceived = true }

// Destroyed reports whether both directions' CLOSE have completed.
func (c *Channel) Destroyed() bool { return c.half.destroyed() }

// ChannelTable tracks locally-allocated channel ids and the open
// Channel objects for one connection.
type ChannelTable struct {
	channels map[uint32]*Channel
	nextID   uint32
}

// NewChannelTable returns an empty table.
func NewChannelTable() *ChannelTable {
	return &ChannelTable{channels: make(map[uint32]*Channel)}
}

// Open allocates a new local channel id and registers a Channel for
// it.
func (t *ChannelTable) Open(kind ChannelKind) *Channel {
	id := t.nextID
	t.nextID++
	ch := NewChannel(kind, id)
	t.channels[id] = ch
	return ch
}

// Lookup returns the channel registered under localID, if any.
func (t *ChannelTable) Lookup(localID uint32) (*Channel, bool) {
	ch, ok := t.channels[localID]
	return ch, ok
}

// Remove drops a destroyed channel from the table.
func (t *ChannelTable) Remove(localID uint32) { delete(t.channels, localID) }

// EncodeWindowAdjust builds a CHANNEL_WINDOW_ADJUST payload.
func EncodeWindowAdjust(remoteID, n uint32) []byte {
	buf := make([]byte, 9)
	buf[0] = MsgChannelWindowAdjust
	binary.BigEndian.PutUint32(buf[1:5], remoteID)
	binary.BigEndian.PutUint32(buf[5:9], n)
	return buf
}

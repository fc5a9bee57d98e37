package transport

// ConnectionState is the coarse state of one SSH-2 connection's
// handshake and rekey lifecycle. Modelled as an int32 enum driven by a
// pure step function, per the "coroutine-like control flow" design
// note: each step is pure except for its returned outgoing messages.
//
// Grounded on the teacher's internal/peer.ConnectionState (an
// atomic-backed int32 enum covering Disconnected/Connecting/
// Handshaking/Connected/Reconnecting), generalised to the finer-
// grained SSH-2 handshake.
type ConnectionState int32

const (
	StatePreamble ConnectionState = iota
	StateVersionExchanged
	StateKexInit
	StateKexAlgorithm
	StateNewKeys
	StateAuthenticating
	StateConnected
	StateRekeying
	StateTerminated
)

func (s ConnectionState) String() string {
	switch s {
	case StatePreamble:
		return "PREAMBLE"
	case StateVersionExchanged:
		return "VERSION_EXCHANGED"
	case StateKexInit:
		return "KEX_INIT"
	case StateKexAlgorithm:
		return "KEX_ALGORITHM"
	case StateNewKeys:
		return "NEW_KEYS"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateConnected:
		return "CONNECTED"
	case StateRekeying:
		return "REKEYING"
	case StateTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// Message opcodes relevant to the handshake state machine (a subset;
// connection-layer opcodes live in channel.go).
const (
	MsgDisconnect  = 1
	MsgIgnore      = 2
	MsgKexInit     = 20
	MsgNewKeys     = 21
	MsgKexDHInit   = 30
	MsgKexDHReply  = 31
	MsgUserauthReq = 50
)

// Packet is the minimal shape Step needs: an opcode and a
// body, decoupled from PacketStream's framing concerns so the step
// function stays pure and easy to test.
type Packet struct {
	Type byte
	Body []byte
}

// StepResult is everything one Step call produces: the next state and
// zero or more outgoing packets to send. Step performs no I/O itself;
// callers are responsible for actually writing Outgoing to the wire.
type StepResult struct {
	Next     ConnectionState
	Outgoing []Packet
	Err      error
}

// Machine holds the mutable handshake context Step reads and updates:
// negotiated algorithms, guessed-packet bookkeeping, and rekey triggers. It deliberately holds no I/O handles; Machine.Step
// is the only entry point and is a pure function of (state, machine
// fields, incoming packet).
type Machine struct {
	State ConnectionState

	ClientKexList AlgorithmLists
	ServerKexList AlgorithmLists
	Negotiated    NegotiatedAlgorithms
	GuessFollows  bool // "first kex packet follows" bit from the peer's KEXINIT
	GuessCorrect  bool

	Bugs BugFlags
}

// Step advances the machine by one incoming packet, per spec 4.5's
// state table: Preamble -> VersionExchanged -> KexInit -> KexAlgorithm
// -> NewKeys -> Authenticating -> Connected -> Rekeying(*) ->
// Terminated.
func (m *Machine) Step(pkt Packet) StepResult {
	switch m.State {
	case StatePreamble:
		// Version exchange is handled before any binary packet framing
		// exists (it's plain-text lines terminated by CRLF), so it is
		// driven by ExchangeVersions rather than through Step; Step
		// only starts once that has completed and the caller transitions
		// to StateVersionExchanged itself.
		return StepResult{Next: StatePreamble, Err: errVersionNotExchanged}

	case StateVersionExchanged:
		if pkt.Type != MsgKexInit {
			return StepResult{Next: m.State, Err: errUnexpectedMessage(pkt.Type, MsgKexInit)}
		}
		m.State = StateKexInit
		return StepResult{Next: StateKexInit}

	case StateKexInit:
		m.State = StateKexAlgorithm
		return StepResult{Next: StateKexAlgorithm}

	case StateKexAlgorithm:
		switch pkt.Type {
		case MsgKexDHInit, MsgKexDHReply:
			return StepResult{Next: StateKexAlgorithm}
		case MsgNewKeys:
			m.State = StateNewKeys
			return StepResult{Next: StateNewKeys}
		default:
			return StepResult{Next: m.State, Err: errUnexpectedMessage(pkt.Type, MsgNewKeys)}
		}

	case StateNewKeys:
		m.State = StateAuthenticating
		return StepResult{Next: StateAuthenticating}

	case StateAuthenticating:
		if pkt.Type == MsgUserauthReq || pkt.Type >= 51 && pkt.Type <= 79 {
			return StepResult{Next: StateAuthenticating}
		}
		m.State = StateConnected
		return StepResult{Next: StateConnected}

	case StateConnected:
		if pkt.Type == MsgKexInit {
			m.State = StateRekeying
			return StepResult{Next: StateRekeying}
		}
		return StepResult{Next: StateConnected}

	case StateRekeying:
		if pkt.Type == MsgNewKeys {
			m.State = StateConnected
			return StepResult{Next: StateConnected}
		}
		return StepResult{Next: StateRekeying}

	case StateTerminated:
		return StepResult{Next: StateTerminated, Err: errTerminated}
	}
	return StepResult{Next: m.State, Err: errUnknownState}
}

// RequestRekey transitions an established connection into Rekeying,
// for local-explicit-request, byte-threshold or time-threshold
// triggers (the caller decides which trigger fired; this just performs
// the transition).
func (m *Machine) RequestRekey() {
	if m.State == StateConnected {
		m.State = StateRekeying
	}
}

// Terminate forces the machine into its terminal state, e.g. on a
// protocol error or explicit disconnect.
func (m *Machine) Terminate() {
	m.State = StateTerminated
}

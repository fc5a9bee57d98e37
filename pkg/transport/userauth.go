package transport

import (
	"encoding/binary"
	"fmt"
)

// AuthMethod names one SSH-2 userauth method, as advertised in the
// server's partial-success method-name list.
type AuthMethod string

const (
	AuthMethodNone                AuthMethod = "none"
	AuthMethodPublicKey           AuthMethod = "publickey"
	AuthMethodKeyboardInteractive AuthMethod = "keyboard-interactive"
	AuthMethodPassword            AuthMethod = "password"
)

// defaultMethodOrder is the order methods are attempted in absent any
// local configuration restricting the set, per spec 4.5: after the
// initial "none" probe, publickey is tried first since it's cheapest to
// probe for, password last since it prompts the user.
var defaultMethodOrder = []AuthMethod{
	AuthMethodNone,
	AuthMethodPublicKey,
	AuthMethodKeyboardInteractive,
	AuthMethodPassword,
}

// AuthPlan is the ordered, server-and-config-filtered sequence of
// methods an authentication attempt will try.
type AuthPlan struct {
	methods []AuthMethod
	next    int
}

// NewAuthPlan builds the method order to attempt: defaultMethodOrder
// filtered down to methods both offered by the server and allowed by
// localAllowed (nil or empty localAllowed means "no local
// restriction").
func NewAuthPlan(serverOffered []string, localAllowed []AuthMethod) *AuthPlan {
	offered := make(map[AuthMethod]bool, len(serverOffered))
	for _, m := range serverOffered {
		offered[AuthMethod(m)] = true
	}
	var allowed map[AuthMethod]bool
	if len(localAllowed) > 0 {
		allowed = make(map[AuthMethod]bool, len(localAllowed))
		for _, m := range localAllowed {
			allowed[m] = true
		}
	}

	plan := &AuthPlan{}
	for _, m := range defaultMethodOrder {
		if m == AuthMethodNone {
			// "none" is always attempted first regardless of the
			// server's advertised method list, to probe whether
			// authentication is required at all.
			plan.methods = append(plan.methods, m)
			continue
		}
		if !offered[m] {
			continue
		}
		if allowed != nil && !allowed[m] {
			continue
		}
		plan.methods = append(plan.methods, m)
	}
	return plan
}

// Next returns the next method to attempt, or ok=false once the plan
// is exhausted.
func (p *AuthPlan) Next() (AuthMethod, bool) {
	if p.next >= len(p.methods) {
		return "", false
	}
	m := p.methods[p.next]
	p.next++
	return m, true
}

// Narrow restricts the remaining plan to methods the server reports as
// still acceptable (the partial-success method-name list returned
// alongside USERAUTH_FAILURE), preserving the existing order.
func (p *AuthPlan) Narrow(serverOffered []string) {
	offered := make(map[AuthMethod]bool, len(serverOffered))
	for _, m := range serverOffered {
		offered[AuthMethod(m)] = true
	}
	var kept []AuthMethod
	for i := p.next; i < len(p.methods); i++ {
		if offered[p.methods[i]] {
			kept = append(kept, p.methods[i])
		}
	}
	p.methods = kept
	p.next = 0
}

// KeyboardInteractivePrompt is one server-supplied prompt in a
// keyboard-interactive round.
type KeyboardInteractivePrompt struct {
	Prompt string
	Echo   bool
}

// KeyboardInteractiveRound is one USERAUTH_INFO_REQUEST exchange.
type KeyboardInteractiveRound struct {
	Name        string
	Instruction string
	Prompts     []KeyboardInteractivePrompt
}

// KeyboardInteractiveState drives the "iterate prompt rounds until
// success or explicit failure" rule spec 4.5 describes for
// keyboard-interactive: the server may issue any number of
// INFO_REQUEST rounds before a final FAILURE or SUCCESS.
type KeyboardInteractiveState struct {
	rounds int
	done   bool
	failed bool
}

// MaxKeyboardInteractiveRounds bounds how many INFO_REQUEST rounds are
// accepted before giving up, resisting a misbehaving or hostile server
// looping forever.
const MaxKeyboardInteractiveRounds = 64

// HandleRound records one more round, returning an error once the
// round bound is exceeded.
func (k *KeyboardInteractiveState) HandleRound() error {
	if k.done {
		return fmt.Errorf("transport: keyboard-interactive round requested after completion")
	}
	k.rounds++
	if k.rounds > MaxKeyboardInteractiveRounds {
		return fmt.Errorf("transport: exceeded %d keyboard-interactive rounds", MaxKeyboardInteractiveRounds)
	}
	return nil
}

// Finish marks the exchange complete, recording whether it succeeded.
func (k *KeyboardInteractiveState) Finish(success bool) {
	k.done = true
	k.failed = !success
}

// Done reports whether the exchange has concluded.
func (k *KeyboardInteractiveState) Done() bool { return k.done }

// Failed reports whether a concluded exchange ended in failure.
func (k *KeyboardInteractiveState) Failed() bool { return k.failed }

// PublicKeyProbe builds the "query" form of a publickey request (the
// cheap probe spec 4.5 describes): the server is asked whether a given
// key would be acceptable before the client goes to the expense of
// signing anything with it.
type PublicKeyProbe struct {
	Algorithm string
	Blob      []byte
}

// SignedAuthRequest is the content a publickey auth attempt signs:
// session_id prefixed to the USERAUTH_REQUEST body built so far (with
// an empty signature field), per RFC 4252 7.
func SignedAuthRequest(sessionID []byte, requestBody []byte) []byte {
	out := make([]byte, 4, 4+len(sessionID)+len(requestBody))
	binary.BigEndian.PutUint32(out, uint32(len(sessionID)))
	out = append(out, sessionID...)
	out = append(out, requestBody...)
	return out
}

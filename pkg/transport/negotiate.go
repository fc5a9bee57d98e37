package transport

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxBannerLines bounds how many pre-version-string lines we'll
// discard before giving up, resisting the resource-exhaustion attack
// spec 4.5 calls out.
const maxBannerLines = 1024

// OwnVersionString builds the version string we send, e.g.
// "SSH-2.0-sshcore_1.0".
func OwnVersionString(implementationID string) string {
	return "SSH-2.0-" + implementationID
}

// ExchangeVersions sends our own version string and reads the peer's,
// discarding banner text first (any line before a line starting with
// "SSH-"). Returns the peer's raw version line (without trailing
// CRLF).
func ExchangeVersions(w io.Writer, r *bufio.Reader, ownVersion string) (peerVersion string, err error) {
	if _, err := io.WriteString(w, ownVersion+"\r\n"); err != nil {
		return "", err
	}

	for i := 0; i < maxBannerLines; i++ {
		line, err := r.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(line, "SSH-") {
			return line, nil
		}
	}
	return "", fmt.Errorf("transport: peer sent more than %d lines of banner text without a version string", maxBannerLines)
}

// AlgorithmLists is one side's KEXINIT algorithm-preference lists, one
// ordered slice per negotiation category.
type AlgorithmLists struct {
	Kex                     []string
	HostKey                 []string
	CiphersClientToServer   []string
	CiphersServerToClient   []string
	MACsClientToServer      []string
	MACsServerToClient      []string
	CompressionClientServer []string
	CompressionServerClient []string

	// FirstKexPacketFollows is the "guess" bit: true if this side is
	// optimistically sending its first KEX packet right after KEXINIT
	// under the assumption its most-preferred algorithms will be
	// chosen.
	FirstKexPacketFollows bool
}

// NegotiatedAlgorithms is the result of combining a client and a
// server AlgorithmLists.
type NegotiatedAlgorithms struct {
	Kex                  string
	HostKey              string
	CipherClientToServer string
	CipherServerToClient string
	MACClientToServer    string
	MACServerToClient    string
	CompressClientServer string
	CompressServerClient string
}

// ErrNoCommonAlgorithm is returned by Negotiate when a category has no
// algorithm in common between the two lists.
type ErrNoCommonAlgorithm struct{ Category string }

func (e ErrNoCommonAlgorithm) Error() string {
	return fmt.Sprintf("transport: no common %s algorithm", e.Category)
}

// CachedHostKeyTypes optionally restricts the negotiated hostkey
// algorithm to one the caller has already cached a host key for
// (ssh_prefer_known_hostkeys), in preference order.
type CachedHostKeyTypes struct {
	Types []string
}

// firstCommon returns the first entry of client that also appears in
// server, per spec 4.5's "first algorithm in the client's list that
// also appears in the server's list" rule.
func firstCommon(client, server []string) (string, bool) {
	serverSet := make(map[string]bool, len(server))
	for _, s := range server {
		serverSet[s] = true
	}
	for _, c := range client {
		if serverSet[c] {
			return c, true
		}
	}
	return "", false
}

// Negotiate combines a client's and a server's algorithm preference
// lists into NegotiatedAlgorithms, per spec 4.5. If preferKnown is
// non-empty, the hostkey algorithm choice is additionally restricted
// to algorithms in preferKnown when possible: the negotiation first
// tries to find a common algorithm that is also in preferKnown, and
// only falls back to the plain first-common rule if none exists.
func Negotiate(client, server AlgorithmLists, preferKnown []string) (NegotiatedAlgorithms, error) {
	var n NegotiatedAlgorithms
	var ok bool

	if n.Kex, ok = firstCommon(client.Kex, server.Kex); !ok {
		return n, ErrNoCommonAlgorithm{"kex"}
	}

	n.HostKey, ok = negotiateHostKey(client.HostKey, server.HostKey, preferKnown)
	if !ok {
		return n, ErrNoCommonAlgorithm{"host key"}
	}

	if n.CipherClientToServer, ok = firstCommon(client.CiphersClientToServer, server.CiphersClientToServer); !ok {
		return n, ErrNoCommonAlgorithm{"client-to-server cipher"}
	}
	if n.CipherServerToClient, ok = firstCommon(client.CiphersServerToClient, server.CiphersServerToClient); !ok {
		return n, ErrNoCommonAlgorithm{"server-to-client cipher"}
	}
	if n.MACClientToServer, ok = firstCommon(client.MACsClientToServer, server.MACsClientToServer); !ok {
		return n, ErrNoCommonAlgorithm{"client-to-server mac"}
	}
	if n.MACServerToClient, ok = firstCommon(client.MACsServerToClient, server.MACsServerToClient); !ok {
		return n, ErrNoCommonAlgorithm{"server-to-client mac"}
	}
	if n.CompressClientServer, ok = firstCommon(client.CompressionClientServer, server.CompressionClientServer); !ok {
		return n, ErrNoCommonAlgorithm{"client-to-server compression"}
	}
	if n.CompressServerClient, ok = firstCommon(client.CompressionServerClient, server.CompressionServerClient); !ok {
		return n, ErrNoCommonAlgorithm{"server-to-client compression"}
	}

	return n, nil
}

func negotiateHostKey(client, server, preferKnown []string) (string, bool) {
	if len(preferKnown) > 0 {
		knownSet := make(map[string]bool, len(preferKnown))
		for _, t := range preferKnown {
			knownSet[t] = true
		}
		serverSet := make(map[string]bool, len(server))
		for _, s := range server {
			serverSet[s] = true
		}
		for _, c := range client {
			if serverSet[c] && knownSet[c] {
				return c, true
			}
		}
	}
	return firstCommon(client, server)
}

// GuessApplies reports whether the server's optimistic first-KEX-
// packet guess should be honoured: the guess was sent, and the guessed
// kex and hostkey algorithms (always the first entries of each list)
// match what Negotiate actually chose.
func GuessApplies(serverGuessed bool, serverList AlgorithmLists, negotiated NegotiatedAlgorithms) bool {
	if !serverGuessed {
		return false
	}
	if len(serverList.Kex) == 0 || len(serverList.HostKey) == 0 {
		return false
	}
	return serverList.Kex[0] == negotiated.Kex && serverList.HostKey[0] == negotiated.HostKey
}

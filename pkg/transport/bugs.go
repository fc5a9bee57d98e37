package transport

import "strings"

// BugSetting controls how a single compatibility workaround is
// applied against a given peer.
type BugSetting int

const (
	// BugAuto detects the workaround's applicability from the peer's
	// version string, per the empirical matching table built up over
	// years of interoperability testing. This table is carried
	// verbatim rather than re-derived: the correspondence between
	// version-string substrings and real implementation quirks isn't
	// something a fresh re-reading of an RFC would reconstruct.
	BugAuto BugSetting = iota
	BugForceOn
	BugForceOff
)

// BugFlags is the set of per-peer protocol workarounds a connection
// may need, each independently tri-state (auto-detect / always on /
// always off).
type BugFlags struct {
	// ChokesOnSSH2IgnoreMessage: don't send SSH_MSG_IGNORE during kex,
	// some servers mishandle it.
	ChokesOnSSH2IgnoreMessage BugSetting
	// ChokesOnSSH2PKSessionIDInKexInit: compute signature without
	// session ID prefix.
	ChokesOnSSH2PKSessionIDInKexInit BugSetting
	// ChokesOnSSH2MaxPkt: ignore the advertised max packet size and
	// never send packets it claims it can't accept.
	ChokesOnSSH2MaxPkt BugSetting
	// RequiresPaddingOverOneBlock: round minimal padding up to a full
	// extra block for certain picky servers.
	RequiresPaddingOverOneBlock BugSetting
	// SupportsOldHMACDigests: accept the predecessor truncated-HMAC
	// wire names some old builds used.
	SupportsOldHMACDigests BugSetting
	// DropsRSASigAlgWhenSHA256: omit rsa-sha2-* from the permitted
	// signature algorithm list when the server's RSA cert uses
	// SHA-256, working around a known GFW-adjacent middlebox quirk.
	DropsRSASigAlgWhenSHA256 BugSetting
	// RequiresDHGexOldMessageNumbers: use the pre-standardisation
	// SSH_MSG_KEX_DH_GEX_REQUEST_OLD numbering.
	RequiresDHGexOldMessageNumbers BugSetting
	// ChokesOnRSAKexNoSHA256: only offer plain Diffie-Hellman kex, not
	// RSA-kex, to servers whose RSA-kex implementation mishandles the
	// SHA-256 hash variant.
	ChokesOnRSAKexNoSHA256 BugSetting
}

// ResolveBugs returns a copy of flags with every BugAuto setting
// resolved against versionString, using the matching table. Settings
// already pinned to BugForceOn/BugForceOff pass through unchanged.
func ResolveBugs(flags BugFlags, versionString string) BugFlags {
	resolved := flags
	autoOn := detectAutoBugs(versionString)
	for _, setting := range []*struct {
		field *BugSetting
		name  string
	}{
		{&resolved.ChokesOnSSH2IgnoreMessage, "ignore"},
		{&resolved.ChokesOnSSH2PKSessionIDInKexInit, "pksessid"},
		{&resolved.ChokesOnSSH2MaxPkt, "maxpkt"},
		{&resolved.RequiresPaddingOverOneBlock, "rsapad2"},
		{&resolved.SupportsOldHMACDigests, "oldgex"},
		{&resolved.DropsRSASigAlgWhenSHA256, "rsasig2"},
		{&resolved.RequiresDHGexOldMessageNumbers, "dhgex"},
		{&resolved.ChokesOnRSAKexNoSHA256, "rsakex"},
	} {
		if *setting.field == BugAuto {
			if on, known := autoOn[setting.name]; known && on {
				*setting.field = BugForceOn
			}
		}
	}
	return resolved
}

// detectAutoBugs is the version-string matching table itself. Entries
// are added as specific interoperability reports come in; absence from
// this table means "assume the peer behaves per spec" rather than
// "known good".
func detectAutoBugs(versionString string) map[string]bool {
	found := map[string]bool{}
	lower := strings.ToLower(versionString)
	for _, sig := range knownQuirkySignatures {
		if strings.Contains(lower, strings.ToLower(sig.substring)) {
			for _, name := range sig.names {
				found[name] = true
			}
		}
	}
	return found
}

var knownQuirkySignatures = []struct {
	substring string
	names     []string
}{
	{"SSH-1.99-OpenSSH_2.", []string{"pksessid"}},
	{"SSH-2.0-OpenSSH_2.", []string{"pksessid"}},
	{"SSH-2.0-dropbear_0.4", []string{"ignore", "maxpkt"}},
	{"SSH-2.0-MindTerm", []string{"oldgex"}},
}

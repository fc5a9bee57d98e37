package transport

import "testing"

func TestResolveBugsAutoDetection(t *testing.T) {
	flags := BugFlags{}
	resolved := ResolveBugs(flags, "SSH-2.0-OpenSSH_2.5.2")
	if resolved.ChokesOnSSH2PKSessionIDInKexInit != BugForceOn {
		t.Fatalf("expected OpenSSH 2.x pksessid quirk to auto-detect, got %v", resolved.ChokesOnSSH2PKSessionIDInKexInit)
	}
}

func TestResolveBugsLeavesUnmatchedAuto(t *testing.T) {
	flags := BugFlags{}
	resolved := ResolveBugs(flags, "SSH-2.0-some_unremarkable_server_9.9")
	if resolved.ChokesOnSSH2PKSessionIDInKexInit != BugAuto {
		t.Fatalf("expected no match to leave BugAuto, got %v", resolved.ChokesOnSSH2PKSessionIDInKexInit)
	}
}

func TestResolveBugsRespectsForcedSetting(t *testing.T) {
	flags := BugFlags{ChokesOnSSH2PKSessionIDInKexInit: BugForceOff}
	resolved := ResolveBugs(flags, "SSH-2.0-OpenSSH_2.5.2")
	if resolved.ChokesOnSSH2PKSessionIDInKexInit != BugForceOff {
		t.Fatalf("expected forced setting to be preserved, got %v", resolved.ChokesOnSSH2PKSessionIDInKexInit)
	}
}

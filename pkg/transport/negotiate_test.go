package transport

import "testing"

func TestNegotiateFirstClientPick(t *testing.T) {
	client := AlgorithmLists{
		Kex:                     []string{"curve25519-sha256", "ecdh-sha2-nistp256"},
		HostKey:                 []string{"ssh-ed25519", "rsa-sha2-512"},
		CiphersClientToServer:   []string{"chacha20-poly1305@openssh.com"},
		CiphersServerToClient:   []string{"chacha20-poly1305@openssh.com"},
		MACsClientToServer:      []string{"hmac-sha2-256"},
		MACsServerToClient:      []string{"hmac-sha2-256"},
		CompressionClientServer: []string{"none"},
		CompressionServerClient: []string{"none"},
	}
	server := AlgorithmLists{
		Kex:                     []string{"ecdh-sha2-nistp256", "curve25519-sha256"},
		HostKey:                 []string{"rsa-sha2-512", "ssh-ed25519"},
		CiphersClientToServer:   []string{"chacha20-poly1305@openssh.com", "aes256-ctr"},
		CiphersServerToClient:   []string{"chacha20-poly1305@openssh.com", "aes256-ctr"},
		MACsClientToServer:      []string{"hmac-sha2-256"},
		MACsServerToClient:      []string{"hmac-sha2-256"},
		CompressionClientServer: []string{"none"},
		CompressionServerClient: []string{"none"},
	}

	n, err := Negotiate(client, server, nil)
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	if n.Kex != "curve25519-sha256" {
		t.Errorf("Kex = %q, want curve25519-sha256", n.Kex)
	}
	if n.HostKey != "ssh-ed25519" {
		t.Errorf("HostKey = %q, want ssh-ed25519", n.HostKey)
	}
}

func TestNegotiateNoCommonAlgorithm(t *testing.T) {
	client := AlgorithmLists{Kex: []string{"a"}, HostKey: []string{"x"}}
	server := AlgorithmLists{Kex: []string{"b"}, HostKey: []string{"x"}}
	if _, err := Negotiate(client, server, nil); err == nil {
		t.Fatal("expected error for disjoint kex lists")
	}
}

func TestNegotiateHostKeyPrefersKnown(t *testing.T) {
	client := AlgorithmLists{
		Kex:                     []string{"curve25519-sha256"},
		HostKey:                 []string{"ssh-ed25519", "rsa-sha2-512"},
		CiphersClientToServer:   []string{"aes256-ctr"},
		CiphersServerToClient:   []string{"aes256-ctr"},
		MACsClientToServer:      []string{"hmac-sha2-256"},
		MACsServerToClient:      []string{"hmac-sha2-256"},
		CompressionClientServer: []string{"none"},
		CompressionServerClient: []string{"none"},
	}
	server := client
	n, err := Negotiate(client, server, []string{"rsa-sha2-512"})
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	if n.HostKey != "rsa-sha2-512" {
		t.Errorf("HostKey = %q, want rsa-sha2-512 (cached preference)", n.HostKey)
	}
}

func TestGuessApplies(t *testing.T) {
	server := AlgorithmLists{Kex: []string{"curve25519-sha256"}, HostKey: []string{"ssh-ed25519"}}
	negotiated := NegotiatedAlgorithms{Kex: "curve25519-sha256", HostKey: "ssh-ed25519"}
	if !GuessApplies(true, server, negotiated) {
		t.Error("expected guess to apply when guessed algorithms match")
	}

	negotiated.Kex = "ecdh-sha2-nistp256"
	if GuessApplies(true, server, negotiated) {
		t.Error("expected guess not to apply on mismatch")
	}

	if GuessApplies(false, server, negotiated) {
		t.Error("expected guess not to apply when not sent")
	}
}

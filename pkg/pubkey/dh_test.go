package pubkey

import "testing"

func TestDHGroup14Exchange(t *testing.T) {
	client, err := DHSetupGroup(Group14, newSeededReader("seed-dh-client"))
	if err != nil {
		t.Fatal(err)
	}
	server, err := DHSetupGroup(Group14, newSeededReader("seed-dh-server"))
	if err != nil {
		t.Fatal(err)
	}

	clientSecret, err := client.ComputeSecret(server.E)
	if err != nil {
		t.Fatal(err)
	}
	serverSecret, err := server.ComputeSecret(client.E)
	if err != nil {
		t.Fatal(err)
	}
	if clientSecret.Cmp(serverSecret) != 0 {
		t.Fatal("both sides should derive the same shared secret")
	}
}

func TestDHRejectsOutOfRangePeerValue(t *testing.T) {
	client, err := DHSetupGroup(Group14, newSeededReader("seed-dh-range"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.ComputeSecret(Group14.P); err == nil {
		t.Fatal("peer value equal to p should be rejected")
	}
}

package conf

import "testing"

func TestDefaultsPopulated(t *testing.T) {
	c := New()
	port, err := c.Get(Port)
	if err != nil {
		t.Fatalf("Get(Port): %v", err)
	}
	if port != 22 {
		t.Fatalf("got default port %v, want 22", port)
	}
	agent, err := c.Get(UseAgent)
	if err != nil {
		t.Fatalf("Get(UseAgent): %v", err)
	}
	if agent != true {
		t.Fatalf("got default UseAgent %v, want true", agent)
	}
}

func TestSetRejectsWrongType(t *testing.T) {
	c := New()
	if err := c.Set(Port, "not-an-int"); err == nil {
		t.Fatal("expected error setting Port to a string")
	}
}

func TestSetGetScalarRoundTrip(t *testing.T) {
	c := New()
	if err := c.Set(HostName, "example.com"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(HostName)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "example.com" {
		t.Fatalf("got %v, want example.com", got)
	}
}

func TestSubkeyedOptionRoundTrip(t *testing.T) {
	c := New()
	if err := c.SetSub(PortForwardLocal, "8080", "localhost:80"); err != nil {
		t.Fatalf("SetSub: %v", err)
	}
	v, ok, err := c.GetSub(PortForwardLocal, "8080")
	if err != nil {
		t.Fatalf("GetSub: %v", err)
	}
	if !ok || v != "localhost:80" {
		t.Fatalf("got (%v, %v), want (localhost:80, true)", v, ok)
	}
}

func TestScalarRejectsSubkeyAccessors(t *testing.T) {
	c := New()
	if _, _, err := c.GetSub(HostName, "x"); err == nil {
		t.Fatal("expected error using GetSub on a scalar option")
	}
	if _, err := c.Get(PortForwardLocal); err == nil {
		t.Fatal("expected error using Get on a subkeyed option")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := New()
	if err := c.Set(HostName, "example.com"); err != nil {
		t.Fatalf("Set HostName: %v", err)
	}
	if err := c.Set(Port, 2222); err != nil {
		t.Fatalf("Set Port: %v", err)
	}
	if err := c.Set(UseAgent, false); err != nil {
		t.Fatalf("Set UseAgent: %v", err)
	}
	if err := c.SetSub(PortForwardLocal, "8080", "localhost:80"); err != nil {
		t.Fatalf("SetSub: %v", err)
	}
	if err := c.SetSub(PortForwardRemote, "9090", "localhost:9000"); err != nil {
		t.Fatalf("SetSub: %v", err)
	}

	data, err := Save(c)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !c.Equal(loaded) {
		t.Fatalf("round-trip mismatch:\nsaved:  %+v\nloaded: %+v", c.values, loaded.values)
	}
}

func TestLoadRejectsUnknownOption(t *testing.T) {
	_, err := Load([]byte("options:\n  nonexistent_option: 1\n"))
	if err == nil {
		t.Fatal("expected error loading an unknown option name")
	}
}

func TestKeyByNameRoundTrip(t *testing.T) {
	k, ok := KeyByName("port")
	if !ok || k != Port {
		t.Fatalf("KeyByName(port) = (%v, %v), want (Port, true)", k, ok)
	}
	if _, ok := KeyByName("does_not_exist"); ok {
		t.Fatal("expected KeyByName to reject an unregistered name")
	}
}

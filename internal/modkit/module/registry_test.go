package module

import "testing"

type runnerPort interface{ Kind() string }

type fakeRunner struct{}

func (fakeRunner) Kind() string { return "transform" }

type fakeModule struct{ ports any }

func (m fakeModule) Ports() any   { return m.ports }
func (m fakeModule) Name() string { return "fake" }

type portBundle struct{ Runner runnerPort }

func TestRegisterAndPortsAs(t *testing.T) {
	t.Cleanup(Reset)

	Register("transform", portBundle{Runner: fakeRunner{}})

	got, ok := PortsAs[portBundle]("transform")
	if !ok {
		t.Fatalf("PortsAs should find registered bundle")
	}
	if got.Runner.Kind() != "transform" {
		t.Fatalf("Kind = %q, want transform", got.Runner.Kind())
	}

	if _, ok := PortsAs[portBundle]("missing"); ok {
		t.Fatalf("PortsAs should miss on unknown name")
	}
	if _, ok := PortsAs[string]("transform"); ok {
		t.Fatalf("PortsAs should miss on wrong type")
	}
}

func TestPortsOfWalksStructFields(t *testing.T) {
	m := fakeModule{ports: portBundle{Runner: fakeRunner{}}}

	r, ok := PortsOf[runnerPort](m)
	if !ok {
		t.Fatalf("PortsOf should find the runner port in a struct field")
	}
	if r.Kind() != "transform" {
		t.Fatalf("Kind = %q, want transform", r.Kind())
	}

	if _, ok := PortsOf[interface{ Missing() }](m); ok {
		t.Fatalf("PortsOf should miss on unimplemented interface")
	}

	// MustPortsOf panics when the port is absent
	defer func() {
		if recover() == nil {
			t.Fatalf("MustPortsOf should panic on missing port")
		}
	}()
	_ = MustPortsOf[interface{ Missing() }](m)
}

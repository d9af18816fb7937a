package relay

import "testing"

func TestRegisterAndModulesOfPreservesOrder(t *testing.T) {
	reg := NewRegistry()

	m1 := newTestModule("m1", "node-a")
	m2 := newTestModule("m2", "node-a")
	m3 := newTestModule("m3", "node-b")

	for _, m := range []*RelayModule{m1, m2, m3} {
		if err := reg.Register(m); err != nil {
			t.Fatalf("Register(%s): %v", m.ID, err)
		}
	}

	mods := reg.ModulesOf("node-a")
	if len(mods) != 2 || mods[0].ID != "m1" || mods[1].ID != "m2" {
		t.Fatalf("ModulesOf(node-a) = %v, want [m1 m2] in registration order", mods)
	}
	if got := reg.TotalModules(); got != 3 {
		t.Fatalf("TotalModules = %d, want 3", got)
	}
	if got := reg.NodeCount(); got != 2 {
		t.Fatalf("NodeCount = %d, want 2", got)
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	m := newTestModule("m1", "node-a")

	if err := reg.Register(m); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := reg.Register(m); err != nil {
		t.Fatalf("second Register should be a no-op, got %v", err)
	}
	if got := len(reg.ModulesOf("node-a")); got != 1 {
		t.Fatalf("expected 1 module after duplicate register, got %d", got)
	}
}

func TestRegisterRejectsConflictingOwner(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(newTestModule("m1", "node-a")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(newTestModule("m1", "node-b")); err == nil {
		t.Fatalf("expected register under a different node to fail")
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(newTestModule("m1", "node-a")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	reg.Unregister("m1")
	reg.Unregister("m1") // already gone; must be a no-op
	reg.Unregister("never-existed")

	if got := len(reg.ModulesOf("node-a")); got != 0 {
		t.Fatalf("expected node-a to have no modules, got %d", got)
	}
	if reg.Module("m1") != nil {
		t.Fatalf("expected m1 lookup to return nil after unregister")
	}
}

func TestModulesOfUnknownNodeReturnsEmpty(t *testing.T) {
	reg := NewRegistry()
	mods := reg.ModulesOf("ghost")
	if mods == nil || len(mods) != 0 {
		t.Fatalf("ModulesOf(unknown) = %v, want empty non-nil slice", mods)
	}
}

func TestRemoveNodeDropsAllModules(t *testing.T) {
	reg := NewRegistry()
	for _, m := range []*RelayModule{
		newTestModule("m1", "node-a"),
		newTestModule("m2", "node-a"),
		newTestModule("m3", "node-b"),
	} {
		if err := reg.Register(m); err != nil {
			t.Fatalf("Register(%s): %v", m.ID, err)
		}
	}

	reg.RemoveNode("node-a")

	if got := len(reg.ModulesOf("node-a")); got != 0 {
		t.Fatalf("expected node-a modules gone, got %d", got)
	}
	if reg.Module("m1") != nil || reg.Module("m2") != nil {
		t.Fatalf("expected node-a module lookups to return nil")
	}
	if reg.Module("m3") == nil {
		t.Fatalf("node-b modules must survive node-a removal")
	}
	if got := reg.NodeIDs(); len(got) != 1 || got[0] != "node-b" {
		t.Fatalf("NodeIDs = %v, want [node-b]", got)
	}
}

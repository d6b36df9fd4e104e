package profile

import "testing"

func TestActionsAreCumulative(t *testing.T) {
	ro := Readonly.Actions()
	pl := Planning.Actions()
	if len(pl) <= len(ro) {
		t.Fatalf("planning should include more actions than readonly")
	}
	roSet := make(map[string]bool)
	for _, a := range ro {
		roSet[string(a)] = true
	}
	for _, a := range roSet {
		_ = a
	}
	for a := range roSet {
		found := false
		for _, pa := range pl {
			if string(pa) == a {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("planning profile missing readonly action %q", a)
		}
	}
}

func TestPrivilegedIncludesEverything(t *testing.T) {
	priv := Privileged.Actions()
	exec := Execution.Actions()
	if len(priv) <= len(exec) {
		t.Fatalf("privileged should strictly extend execution")
	}
}

func TestResolveKnownAction(t *testing.T) {
	name, actions, ok := Resolve("create-branch")
	if !ok || name != Privileged {
		t.Fatalf("expected privileged profile, got %q ok=%v", name, ok)
	}
	if len(actions) == 0 {
		t.Fatalf("expected non-empty action list")
	}
}

func TestResolveUnknownAction(t *testing.T) {
	_, _, ok := Resolve("launch-the-missiles")
	if ok {
		t.Fatalf("expected unknown orchestrator action to fail resolution")
	}
}

func TestValidateActionMap(t *testing.T) {
	if err := ValidateActionMap(); err != nil {
		t.Fatalf("action map validation failed: %v", err)
	}
}

package runtime

import "testing"

func TestRootShapeIsEmpty(t *testing.T) {
	s := RootShape()
	if s.Has("x") {
		t.Fatal("a fresh root shape should have no properties")
	}
	if _, ok := s.Lookup("x"); ok {
		t.Fatal("Lookup on an empty shape should report not-found")
	}
}

func TestTransitionAddsPropertyAtNextSlot(t *testing.T) {
	root := RootShape()
	s1 := root.Transition("a", DefaultDataFlags)
	s2 := s1.Transition("b", DefaultDataFlags)

	infoA, ok := s2.Lookup("a")
	if !ok || infoA.Index != 0 {
		t.Fatalf("got %+v, ok=%v, want index 0", infoA, ok)
	}
	infoB, ok := s2.Lookup("b")
	if !ok || infoB.Index != 1 {
		t.Fatalf("got %+v, ok=%v, want index 1", infoB, ok)
	}
}

func TestSameTransitionPathSharesShape(t *testing.T) {
	root := RootShape()
	a1 := root.Transition("x", DefaultDataFlags)
	a2 := root.Transition("x", DefaultDataFlags)
	if a1 != a2 {
		t.Error("two objects adding the same key in the same order from the same root should share a shape")
	}
}

func TestDivergingTransitionPathsProduceDistinctShapes(t *testing.T) {
	root := RootShape()
	withX := root.Transition("x", DefaultDataFlags)
	withY := root.Transition("y", DefaultDataFlags)
	if withX == withY {
		t.Error("adding different keys from the same root should not share a shape")
	}
	if withX.Has("y") || withY.Has("x") {
		t.Error("a shape must not see a sibling transition's property")
	}
}

func TestWithUpdatedFlagsDemotesToPrivateDictionary(t *testing.T) {
	root := RootShape()
	shared := root.Transition("x", DefaultDataFlags)
	updated := shared.WithUpdatedFlags("x", FlagEnumerable)

	if !updated.Dictionary {
		t.Error("WithUpdatedFlags must produce a dictionary-mode shape")
	}
	info, ok := shared.Lookup("x")
	if !ok || info.Flags != DefaultDataFlags {
		t.Errorf("original shape must be unaffected by the copy's flag change, got %+v", info)
	}
	info, ok = updated.Lookup("x")
	if !ok || info.Flags != FlagEnumerable {
		t.Errorf("got %+v, want FlagEnumerable only", info)
	}
}

func TestWithoutKeyRenumbersRemainingProperties(t *testing.T) {
	root := RootShape()
	s := root.Transition("a", DefaultDataFlags).Transition("b", DefaultDataFlags).Transition("c", DefaultDataFlags)
	afterDelete := s.WithoutKey("b")

	if afterDelete.Has("b") {
		t.Fatal("deleted key must not remain in the shape")
	}
	infoA, _ := afterDelete.Lookup("a")
	infoC, _ := afterDelete.Lookup("c")
	if infoA.Index != 0 || infoC.Index != 1 {
		t.Errorf("expected remaining properties renumbered contiguously, got a=%d c=%d", infoA.Index, infoC.Index)
	}
	if !afterDelete.Dictionary {
		t.Error("WithoutKey must produce a dictionary-mode shape")
	}
}

func TestDictionaryShapeNeverSharesTransitions(t *testing.T) {
	root := RootShape()
	dict := root.Transition("a", DefaultDataFlags).WithoutKey("a")
	d1 := dict.Transition("z", DefaultDataFlags)
	d2 := dict.Transition("z", DefaultDataFlags)
	if d1 == d2 {
		t.Error("a dictionary shape must allocate a fresh private shape on every transition, never share one")
	}
}

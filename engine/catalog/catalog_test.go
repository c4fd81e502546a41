package catalog

import (
	"errors"
	"testing"
)

func TestBuiltinLookup(t *testing.T) {
	cat := Builtin()
	if cat.Len() != 12 {
		t.Fatalf("expected 12 components, got %d", cat.Len())
	}
	fan, ok := cat.Lookup(Fan)
	if !ok {
		t.Fatal("fan not found")
	}
	if fan.Category != CategoryLoad {
		t.Fatalf("expected load category, got %s", fan.Category)
	}
	if _, ok := fan.Terminal("fan-n"); !ok {
		t.Fatal("fan-n terminal missing")
	}
	if _, ok := cat.Lookup("toaster"); ok {
		t.Fatal("unknown id should not be found")
	}
}

func TestTerminalResolution(t *testing.T) {
	cat := Builtin()
	term, ok := cat.Terminal(Battery, "bat-pos")
	if !ok || term.Type != TypeDCPos {
		t.Fatalf("expected DC+ terminal, got %+v ok=%v", term, ok)
	}
	if _, ok := cat.Terminal(Battery, "bat-l"); ok {
		t.Fatal("unknown terminal should not resolve")
	}
	if _, ok := cat.Terminal("toaster", "bat-pos"); ok {
		t.Fatal("terminal of unknown component should not resolve")
	}
}

func TestByCategory(t *testing.T) {
	cat := Builtin()
	tests := []struct {
		cat  Category
		want []string
	}{
		{CategoryPower, []string{PowerSupply, MCB, DistributionBoard}},
		{CategoryControl, []string{Switch, Regulator}},
		{CategoryLoad, []string{Fan, Bulb, TubeLight, Socket5A, Socket15A}},
		{CategoryBackup, []string{Battery, Inverter}},
	}
	for _, tt := range tests {
		got := cat.ByCategory(tt.cat)
		if len(got) != len(tt.want) {
			t.Fatalf("%s: expected %d components, got %d", tt.cat, len(tt.want), len(got))
		}
		for i, c := range got {
			if c.ID != tt.want[i] {
				t.Errorf("%s[%d] = %s, want %s", tt.cat, i, c.ID, tt.want[i])
			}
		}
	}
}

func TestIDsSortedAndIndexInCatalogOrder(t *testing.T) {
	cat := Builtin()
	ids := cat.IDs()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] > ids[i] {
			t.Fatalf("ids not sorted: %v", ids)
		}
	}
	if cat.Index(PowerSupply) != 0 {
		t.Fatalf("expected power-supply first, got %d", cat.Index(PowerSupply))
	}
	if cat.Index("toaster") != -1 {
		t.Fatal("expected -1 for unknown id")
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New(Component{ID: "a"}, Component{ID: "a"})
	if !errors.Is(err, ErrDuplicateComponent) {
		t.Fatalf("expected ErrDuplicateComponent, got %v", err)
	}

	_, err = New(Component{ID: "a", Terminals: []Terminal{{ID: "x"}, {ID: "x"}}})
	if !errors.Is(err, ErrDuplicateTerminal) {
		t.Fatalf("expected ErrDuplicateTerminal, got %v", err)
	}

	_, err = New(Component{})
	if !errors.Is(err, ErrEmptyComponentID) {
		t.Fatalf("expected ErrEmptyComponentID, got %v", err)
	}
}

func TestNewCopiesTerminals(t *testing.T) {
	terms := []Terminal{{ID: "x", Type: TypeLive}}
	cat := MustNew(Component{ID: "a", Terminals: terms})
	terms[0].ID = "mutated"
	if _, ok := cat.Terminal("a", "x"); !ok {
		t.Fatal("catalog should not share the caller's terminal slice")
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustNew(Component{ID: "a"}, Component{ID: "a"})
}

func TestLoadAndPowerChainIDsExist(t *testing.T) {
	cat := Builtin()
	for _, id := range append(append([]string{}, LoadIDs...), PowerChainIDs...) {
		if !cat.Has(id) {
			t.Errorf("%s missing from builtin catalog", id)
		}
	}
}

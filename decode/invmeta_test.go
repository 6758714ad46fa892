package decode

import (
	"testing"

	"github.com/mt-map-search/mapscan/blob"
	"github.com/mt-map-search/mapscan/errkind"
)

func u32be(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func u16be(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

func TestReadMetadataTableEmpty(t *testing.T) {
	r := blob.New(u32be(0))
	vars, err := readMetadataTable(r)
	if err != nil {
		t.Fatalf("readMetadataTable: %v", err)
	}
	if len(vars) != 0 {
		t.Errorf("len(vars) = %d, want 0", len(vars))
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", r.Remaining())
	}
}

func TestReadMetadataTableOneEntry(t *testing.T) {
	var buf []byte
	buf = append(buf, u32be(1)...)
	buf = append(buf, u16be(5)...)
	buf = append(buf, "owner"...)
	buf = append(buf, u32be(6)...)
	buf = append(buf, "Player"...)
	buf = append(buf, 1) // private

	r := blob.New(buf)
	vars, err := readMetadataTable(r)
	if err != nil {
		t.Fatalf("readMetadataTable: %v", err)
	}
	if len(vars) != 1 {
		t.Fatalf("len(vars) = %d, want 1", len(vars))
	}
	if vars[0].Key != "owner" || vars[0].Value != "Player" || !vars[0].Private {
		t.Errorf("unexpected entry: %+v", vars[0])
	}
}

func TestReadMetadataTableRejectsBadPrivateFlag(t *testing.T) {
	var buf []byte
	buf = append(buf, u32be(1)...)
	buf = append(buf, u16be(1)...)
	buf = append(buf, "k"...)
	buf = append(buf, u32be(1)...)
	buf = append(buf, "v"...)
	buf = append(buf, 2) // invalid

	r := blob.New(buf)
	_, err := readMetadataTable(r)
	if err == nil {
		t.Fatal("expected error for private flag value 2")
	}
	if _, ok := err.(*errkind.SerializationError); !ok {
		t.Errorf("expected *errkind.SerializationError, got %T", err)
	}
}

func TestReadInventorySimple(t *testing.T) {
	src := "List main 8\nItem default:stone\nEmpty\nEndInventoryList\nEndInventory\n"
	r := blob.New([]byte(src))

	inv, err := readInventory(r)
	if err != nil {
		t.Fatalf("readInventory: %v", err)
	}
	items, ok := inv["main"]
	if !ok {
		t.Fatal("expected list \"main\"")
	}
	if len(items) != 2 || items[0] != "default:stone" || items[1] != "" {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestReadInventoryItemBeforeListIsError(t *testing.T) {
	src := "Item default:stone\nEndInventory\n"
	r := blob.New([]byte(src))
	if _, err := readInventory(r); err == nil {
		t.Fatal("expected error for Item before any List")
	}
}

func TestReadInventoryJunkLineIsError(t *testing.T) {
	src := "Bogus line\nEndInventory\n"
	r := blob.New([]byte(src))
	if _, err := readInventory(r); err == nil {
		t.Fatal("expected error for unrecognized line")
	}
}

func TestReadInventoryHugeItemLineBypassesNormalPath(t *testing.T) {
	huge := make([]byte, 5000)
	for i := range huge {
		huge[i] = 'x'
	}
	src := "List main 8\nItem " + string(huge) + "\nEndInventoryList\nEndInventory\n"
	r := blob.New([]byte(src))

	inv, err := readInventory(r)
	if err != nil {
		t.Fatalf("readInventory: %v", err)
	}
	if len(inv["main"]) != 1 || len(inv["main"][0]) != 5000 {
		t.Errorf("expected one 5000-byte item, got %+v", inv["main"])
	}
}

func TestParseCurrencyMinegeld(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"currency:minegeld_10", 10},
		{"currency:minegeld_25 46", 1150},
		{"currency:minegeld_10_cent", 0},
		{"currency:minegeld_10_bundle", 0},
		{"default:stone", 0},
		{"currency:minegeld_0", 0},
		{"currency:minegeld_5 0", 0},
	}
	for _, tt := range cases {
		if got := ParseCurrencyMinegeld(tt.in); got != tt.want {
			t.Errorf("ParseCurrencyMinegeld(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestInventoryTotalMinegeld(t *testing.T) {
	inv := Inventory{
		"main": {"currency:minegeld_10", "default:stone", "currency:minegeld_25 2"},
	}
	if got, want := inv.TotalMinegeld(), uint64(60); got != want {
		t.Errorf("TotalMinegeld() = %d, want %d", got, want)
	}
}

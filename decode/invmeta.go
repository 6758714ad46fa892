// Package decode implements the block-format decoder: the line-oriented
// inventory grammar, the per-node metadata table, and the full MapBlock
// parser that ties both together with the blob reader and the id
// interner.
//
// The inventory grammar is simple enough that a hand-rolled line switch
// reads more naturally here than a regex pipeline would, and it sidesteps
// a regex engine's recursion limits on pathologically long lines by
// special-casing long "Item " lines before they ever reach the matcher.
package decode

import (
	"strconv"
	"strings"

	"github.com/mt-map-search/mapscan/blob"
	"github.com/mt-map-search/mapscan/errkind"
)

// MetaVar is a single key/value/private metadata entry on a node.
type MetaVar struct {
	Key     string
	Value   string
	Private bool
}

// Inventory maps list name to the ordered items within that list.
type Inventory map[string][]string

// readMetadataTable parses the C5 metadata table: u32 count, then per
// entry u16 key_len, key bytes, u32 val_len, val bytes, u8 private flag.
func readMetadataTable(r *blob.Reader) ([]MetaVar, error) {
	count, err := r.ReadU32("meta.num_vars")
	if err != nil {
		return nil, err
	}

	vars := make([]MetaVar, 0, count)
	for i := uint32(0); i < count; i++ {
		keyLen, err := r.ReadU16("meta.key_len")
		if err != nil {
			return nil, err
		}
		key, err := r.ReadStr(int(keyLen), "meta.key")
		if err != nil {
			return nil, err
		}

		valLen, err := r.ReadU32("meta.val_len")
		if err != nil {
			return nil, err
		}
		val, err := r.ReadStr(int(valLen), "meta.val")
		if err != nil {
			return nil, err
		}

		privateFlag, err := r.ReadU8("meta.private")
		if err != nil {
			return nil, err
		}
		if privateFlag > 1 {
			return nil, errkind.NewSerializationError(r.Size(), r.Offset(), r.Remaining(),
				"meta.private", "unexpected value for meta.private: %d", privateFlag)
		}

		vars = append(vars, MetaVar{Key: key, Value: val, Private: privateFlag == 1})
	}

	return vars, nil
}

// readInventory parses the C5 inventory grammar: a sequence of
// "List <name> <width>" ... "Item <str>"/"Empty" ... "EndInventoryList"
// blocks, terminated by "EndInventory".
func readInventory(r *blob.Reader) (Inventory, error) {
	inv := make(Inventory)

	var listName string
	var current []string
	haveList := false

	for {
		line, err := r.ReadLine("inventory")
		if err != nil {
			return nil, err
		}

		switch {
		case strings.HasPrefix(line, "List "):
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return nil, errkind.NewSerializationError(r.Size(), r.Offset(), r.Remaining(),
					"inventory", "malformed List line: %q", line)
			}
			listName = fields[1]
			current = nil
			haveList = true

		case strings.HasPrefix(line, "Width "):
			// Width is parsed but ignored, matching the original's "meh".

		case len(line) > 4096 && strings.HasPrefix(line, "Item "):
			// Bypass normal item handling for pathologically large lines.
			current = append(current, line[len("Item "):])

		case strings.HasPrefix(line, "Item "):
			if !haveList {
				return nil, errkind.NewSerializationError(r.Size(), r.Offset(), r.Remaining(),
					"inventory", "Item line before any List: %q", line)
			}
			current = append(current, line[len("Item "):])

		case line == "Empty":
			if !haveList {
				return nil, errkind.NewSerializationError(r.Size(), r.Offset(), r.Remaining(),
					"inventory", "Empty line before any List")
			}
			current = append(current, "")

		case line == "EndInventoryList":
			inv[listName] = current
			listName = ""
			current = nil
			haveList = false

		case line == "EndInventory":
			return inv, nil

		default:
			return nil, errkind.NewSerializationError(r.Size(), r.Offset(), r.Remaining(),
				"inventory", "unexpected line: %q", line)
		}
	}
}

const minegeldPrefix = "currency:minegeld_"

// ParseCurrencyMinegeld extracts the quantity of in-game currency encoded
// in an inventory item string of the form "currency:minegeld_<denom>[
// <qty>]". Strings without the exact prefix, or with a non-numeric
// denomination, return 0. The "_cent"/"_bundle" variants are not decimal
// suffixes and fail the numeric parse, so they also return 0.
func ParseCurrencyMinegeld(item string) uint64 {
	if !strings.HasPrefix(item, minegeldPrefix) {
		return 0
	}

	rest := item[len(minegeldPrefix):]
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0
	}
	denom, err := strconv.ParseUint(rest[:i], 10, 64)
	if err != nil || denom == 0 {
		return 0
	}

	rest = rest[i:]
	if rest == "" {
		return denom
	}

	rest = strings.TrimLeft(rest, " ")
	j := 0
	for j < len(rest) && rest[j] >= '0' && rest[j] <= '9' {
		j++
	}
	if j == 0 {
		// Trailing junk (e.g. "_cent", "_bundle") isn't a quantity.
		return 0
	}
	qty, err := strconv.ParseUint(rest[:j], 10, 64)
	if err != nil || qty == 0 {
		return 0
	}

	return denom * qty
}

// TotalMinegeld sums ParseCurrencyMinegeld across every item in inv.
func (inv Inventory) TotalMinegeld() uint64 {
	var total uint64
	for _, items := range inv {
		for _, item := range items {
			total += ParseCurrencyMinegeld(item)
		}
	}
	return total
}

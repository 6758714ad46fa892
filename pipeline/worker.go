package pipeline

import (
	"context"

	"github.com/mt-map-search/mapscan/annot"
	"github.com/mt-map-search/mapscan/coord"
	"github.com/mt-map-search/mapscan/decode"
	"github.com/mt-map-search/mapscan/intern"
	"github.com/mt-map-search/mapscan/log"
	"github.com/mt-map-search/mapscan/sink"
)

// bonesNodeName is the single node type special-cased by name regardless
// of what the name filter's patterns say, because a bones block always
// carries a player's dropped inventory.
const bonesNodeName = "bones:bones"

// runWorker pops block positions from the queue until it observes the
// tombstone, decoding each one and emitting rows of interest.
func (d *Driver) runWorker(ctx context.Context, id int) error {
	names := intern.NewLocalCache(d.nodeNames)
	actors := intern.NewLocalCache(d.actorNames)
	preserveSeeds := make([]coord.BC, 0, preserveThreshold)

	for {
		key := d.queue.Pop()
		if key.IsTombstone() {
			break
		}

		bc := coord.Unpack(key.Pos)
		if err := d.processBlock(ctx, bc, key.Pos, names, actors, &preserveSeeds); err != nil {
			return err
		}
	}

	if len(preserveSeeds) > 0 {
		d.agg.Enqueue(preserveSeeds)
	}
	log.Debug("worker exiting", log.F("worker", id))
	return nil
}

// processBlock loads and decodes one block, buffers its rows of interest
// and annotation, and accumulates preserve seeds. A decode or missing-block
// failure is recorded as a bad block and does not propagate; only a
// genuine source-store I/O error does.
func (d *Driver) processBlock(ctx context.Context, bc coord.BC, posID int64,
	names *intern.LocalCache[decode.NodeExtra], actors *intern.LocalCache[sink.ActorExtra],
	preserveSeeds *[]coord.BC) error {

	data, ok, err := d.source.Load(ctx, bc)
	if err != nil {
		return err
	}
	if !ok {
		d.stats.addBad(1)
		log.Warn("block not found in source store", log.F("block", posID))
		if err := d.sink.LogBadBlock(bc, "not found in source store"); err != nil {
			return err
		}
		return nil
	}

	mb, err := decode.DecodeMapBlock(data, posID, names)
	if err != nil {
		d.stats.addBad(1)
		log.Warn("failed to decode mapblock", log.F("block", posID), log.F("error", err.Error()))
		if err := d.sink.LogBadBlock(bc, err.Error()); err != nil {
			return err
		}
		return nil
	}
	d.stats.addGood(1)

	anthropocene := false
	var rows []sink.NodeOfInterest

	for i := range mb.Nodes {
		node := &mb.Nodes[i]
		entry := names.Get(uint64(node.Param0))
		anthropocene = anthropocene || entry.Extra.Anthropocene

		owner := node.Owner()
		var actorID uint64
		if owner != "" {
			actorID = actors.Add(owner)
		}

		var minegeld uint64
		if d.cfg.Minegeld {
			minegeld = node.Inventory.TotalMinegeld()
		}

		isBones := entry.Key == bonesNodeName
		hasInventory := len(node.Inventory) > 0

		if minegeld > 0 || isBones || hasInventory || actorID > 0 {
			nc := coord.PackNode(bc, i)
			rows = append(rows, sink.NodeOfInterest{
				PosID:    coord.PackNodeID(nc),
				X:        nc.X,
				Y:        nc.Y,
				Z:        nc.Z,
				ActorID:  actorID,
				NodeID:   uint64(node.Param0),
				Minegeld: minegeld,
				Items:    inventoryItems(node.Inventory),
			})
		}
	}

	if len(rows) > 0 {
		d.sink.EnqueueNodes(rows)
	}

	var uniform uint16
	if mb.UniqueLocalIDs == 1 {
		uniform = mb.Nodes[0].Param0
	}

	// The sparse annotation entry must exist before the block position is
	// enqueued for flush, so a concurrent flush never reads a default zero
	// value for a block this worker has already scanned.
	d.annotStore.Update(bc, func(v *annot.MapBlockAnnotation) {
		v.Uniform = uniform
		v.Anthropocene = anthropocene
	})
	d.sink.EnqueueBlockAnnotation(bc)

	if anthropocene {
		*preserveSeeds = append(*preserveSeeds, bc)
	}
	if len(*preserveSeeds) > preserveThreshold {
		d.agg.Enqueue(*preserveSeeds)
		*preserveSeeds = make([]coord.BC, 0, preserveThreshold)
	}

	return nil
}

// inventoryItems flattens a decode.Inventory into the flat rows the sink
// stores. Items keep their order within each list; the order in which
// lists are visited is not defined.
func inventoryItems(inv decode.Inventory) []sink.InventoryItem {
	if len(inv) == 0 {
		return nil
	}
	var items []sink.InventoryItem
	for list, strs := range inv {
		for _, s := range strs {
			items = append(items, sink.InventoryItem{ListName: list, ItemString: s})
		}
	}
	return items
}

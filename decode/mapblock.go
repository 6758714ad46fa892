// MapBlock decoding: header, node arrays, metadata, static objects,
// timers, and the local→global id remap table.
package decode

import (
	"github.com/mt-map-search/mapscan/blob"
	"github.com/mt-map-search/mapscan/errkind"
	"github.com/mt-map-search/mapscan/intern"
)

// NodesPerBlock is the fixed 16x16x16 node count of a single map block.
const NodesPerBlock = 16 * 16 * 16

// NodeExtra is the per-name payload carried by the node-name interning
// table: whether the name itself marks a block as "anthropocene" once any
// node carries it.
type NodeExtra struct {
	Anthropocene bool
}

// Node is one decoded voxel. Param0 holds the local content id on the wire
// (always < NodesPerBlock) and, after MapBlock.remapParam0, the global
// interned content id. Like the original decoder, ids are assumed to fit
// in 16 bits: a world with more than 65536 distinct node names would
// silently alias here, a constraint inherited rather than fixed so the
// per-node footprint matches the budget in the sharded-map design (C4).
type Node struct {
	Param0    uint16
	Param1    uint8
	Param2    uint8
	Metadata  []MetaVar
	Inventory Inventory
}

// MapBlock is a fully decoded block.
type MapBlock struct {
	Version          uint8
	Flags            uint8
	LightingComplete uint16
	Timestamp        uint32
	Nodes            [NodesPerBlock]Node

	// UniqueLocalIDs is the number of distinct local ids named in the
	// block's local id table; later used to decide whether a block is
	// "uniform" (every node shares one global content id).
	UniqueLocalIDs int
}

// DecodeMapBlock parses a full map-block blob. posID is the packed block
// position; the decoder does not use it (errors carry buffer offsets and
// field labels only, and callers attach the position themselves when
// logging). names interns local content id
// names into global ids (worker-local cache over the shared C3 table).
func DecodeMapBlock(data []byte, posID int64, names *intern.LocalCache[NodeExtra]) (*MapBlock, error) {
	r := blob.New(data)

	version, err := r.ReadU8("version")
	if err != nil {
		return nil, err
	}

	mb := &MapBlock{Version: version}

	var remap map[uint16]uint64
	switch version {
	case 28:
		remap, err = mb.decodeFormat28(r, names)
	case 29:
		remap, err = mb.decodeFormat29(r, names)
	default:
		err = errkind.NewSerializationError(r.Size(), r.Offset(), r.Remaining(), "version",
			"unsupported map block version %d", version)
	}
	if err != nil {
		return nil, err
	}

	if err := mb.remapParam0(remap); err != nil {
		return nil, err
	}

	if r.Remaining() != 0 {
		return nil, errkind.NewSerializationError(r.Size(), r.Offset(), r.Remaining(), "MapBlock",
			"left over data after deserialization: %s", r.HexPreview(128))
	}

	mb.UniqueLocalIDs = len(remap)
	return mb, nil
}

func (mb *MapBlock) decodeFormat28(r *blob.Reader, names *intern.LocalCache[NodeExtra]) (map[uint16]uint64, error) {
	var err error
	if mb.Flags, err = r.ReadU8("flags"); err != nil {
		return nil, err
	}
	if mb.LightingComplete, err = r.ReadU16("lighting_complete"); err != nil {
		return nil, err
	}

	if err := checkWidth(r, "content_width"); err != nil {
		return nil, err
	}
	if err := checkWidth(r, "params_width"); err != nil {
		return nil, err
	}

	if err := mb.decodeNodesZlib(r); err != nil {
		return nil, err
	}
	if err := mb.decodeMetadataZlib(r); err != nil {
		return nil, err
	}
	if err := skipStaticObjects(r); err != nil {
		return nil, err
	}

	if mb.Timestamp, err = r.ReadU32("timestamp"); err != nil {
		return nil, err
	}
	remap, err := decodeLocalIDTable(r, names)
	if err != nil {
		return nil, err
	}

	if err := skipNodeTimers(r); err != nil {
		return nil, err
	}

	return remap, nil
}

func (mb *MapBlock) decodeFormat29(r *blob.Reader, names *intern.LocalCache[NodeExtra]) (map[uint16]uint64, error) {
	body, err := r.DecompressZstd("format-29.zstd")
	if err != nil {
		return nil, err
	}
	b2 := blob.New(body)

	if mb.Flags, err = b2.ReadU8("flags"); err != nil {
		return nil, err
	}
	if mb.LightingComplete, err = b2.ReadU16("lighting_complete"); err != nil {
		return nil, err
	}
	if mb.Timestamp, err = b2.ReadU32("timestamp"); err != nil {
		return nil, err
	}

	remap, err := decodeLocalIDTable(b2, names)
	if err != nil {
		return nil, err
	}

	if err := checkWidth(b2, "content_width"); err != nil {
		return nil, err
	}
	if err := checkWidth(b2, "params_width"); err != nil {
		return nil, err
	}

	if err := mb.decodeNodesInline(b2); err != nil {
		return nil, err
	}
	if err := mb.decodeMetadataInline(b2); err != nil {
		return nil, err
	}
	if err := skipStaticObjects(b2); err != nil {
		return nil, err
	}
	if err := skipNodeTimers(b2); err != nil {
		return nil, err
	}

	if b2.Remaining() != 0 {
		return nil, errkind.NewSerializationError(b2.Size(), b2.Offset(), b2.Remaining(), "format-29",
			"left over data inside zstd body: %s", b2.HexPreview(128))
	}

	return remap, nil
}

func checkWidth(r *blob.Reader, label string) error {
	w, err := r.ReadU8(label)
	if err != nil {
		return err
	}
	if w != 2 {
		return errkind.NewSerializationError(r.Size(), r.Offset(), r.Remaining(), label,
			"unsupported %s %d", label, w)
	}
	return nil
}

// decodeNodesZlib reads the v28 node-data triplet as a nested zlib stream
// that must inflate to exactly NodesPerBlock*4 bytes.
func (mb *MapBlock) decodeNodesZlib(r *blob.Reader) error {
	buf, err := r.DecompressZlib("nodes")
	if err != nil {
		return err
	}
	const want = NodesPerBlock*2 + NodesPerBlock + NodesPerBlock
	if len(buf) != want {
		return errkind.NewSerializationError(r.Size(), r.Offset(), r.Remaining(), "nodes",
			"decompressed into %d bytes, expected %d", len(buf), want)
	}

	for i := 0; i < NodesPerBlock; i++ {
		mb.Nodes[i].Param0 = uint16(buf[i*2])<<8 | uint16(buf[i*2+1])
	}
	base1 := NodesPerBlock * 2
	for i := 0; i < NodesPerBlock; i++ {
		mb.Nodes[i].Param1 = buf[base1+i]
	}
	base2 := base1 + NodesPerBlock
	for i := 0; i < NodesPerBlock; i++ {
		mb.Nodes[i].Param2 = buf[base2+i]
	}
	return nil
}

// decodeNodesInline reads the v29 node-data triplet directly from r, with
// no intervening compression.
func (mb *MapBlock) decodeNodesInline(r *blob.Reader) error {
	for i := 0; i < NodesPerBlock; i++ {
		v, err := r.ReadU16("nodes.param0")
		if err != nil {
			return err
		}
		mb.Nodes[i].Param0 = v
	}
	for i := 0; i < NodesPerBlock; i++ {
		v, err := r.ReadU8("nodes.param1")
		if err != nil {
			return err
		}
		mb.Nodes[i].Param1 = v
	}
	for i := 0; i < NodesPerBlock; i++ {
		v, err := r.ReadU8("nodes.param2")
		if err != nil {
			return err
		}
		mb.Nodes[i].Param2 = v
	}
	return nil
}

func (mb *MapBlock) decodeMetadataZlib(r *blob.Reader) error {
	buf, err := r.DecompressZlib("metadata")
	if err != nil {
		return err
	}
	inner := blob.New(buf)
	return mb.decodeMetadataBody(inner)
}

func (mb *MapBlock) decodeMetadataInline(r *blob.Reader) error {
	return mb.decodeMetadataBody(r)
}

// decodeMetadataBody reads the sub_version-gated per-node metadata table
// shared by both formats.
func (mb *MapBlock) decodeMetadataBody(r *blob.Reader) error {
	subVersion, err := r.ReadU8("meta.version")
	if err != nil {
		return err
	}
	if subVersion == 0 {
		return nil
	}
	if subVersion != 2 {
		return errkind.NewSerializationError(r.Size(), r.Offset(), r.Remaining(), "meta.version",
			"unsupported meta.version value %d", subVersion)
	}

	count, err := r.ReadU16("meta.count")
	if err != nil {
		return err
	}

	for i := uint16(0); i < count; i++ {
		localIndex, err := r.ReadU16("meta.pos")
		if err != nil {
			return err
		}
		if int(localIndex) >= NodesPerBlock {
			return errkind.NewSerializationError(r.Size(), r.Offset(), r.Remaining(), "meta.pos",
				"invalid local index %d", localIndex)
		}

		vars, err := readMetadataTable(r)
		if err != nil {
			return err
		}
		inv, err := readInventory(r)
		if err != nil {
			return err
		}

		mb.Nodes[localIndex].Metadata = vars
		mb.Nodes[localIndex].Inventory = inv
	}

	return nil
}

func skipStaticObjects(r *blob.Reader) error {
	objVersion, err := r.ReadU8("static_object.version")
	if err != nil {
		return err
	}
	if objVersion != 0 {
		return errkind.NewSerializationError(r.Size(), r.Offset(), r.Remaining(), "static_object.version",
			"unsupported static_object.version value %d", objVersion)
	}

	count, err := r.ReadU16("static_object.count")
	if err != nil {
		return err
	}
	for i := uint16(0); i < count; i++ {
		if _, err := r.ReadU8("static_object.type"); err != nil {
			return err
		}
		for _, label := range []string{"static_object.x", "static_object.y", "static_object.z"} {
			if _, err := r.ReadS32(label); err != nil {
				return err
			}
		}
		size, err := r.ReadU16("static_object.data_size")
		if err != nil {
			return err
		}
		if err := r.Skip(int(size), "static_object.data"); err != nil {
			return err
		}
	}
	return nil
}

func skipNodeTimers(r *blob.Reader) error {
	if _, err := r.ReadU8("timer.len"); err != nil {
		return err
	}
	count, err := r.ReadU16("timer.count")
	if err != nil {
		return err
	}
	for i := uint16(0); i < count; i++ {
		if _, err := r.ReadU16("timer.pos"); err != nil {
			return err
		}
		if _, err := r.ReadS32("timer.timeout"); err != nil {
			return err
		}
		if _, err := r.ReadS32("timer.elapsed"); err != nil {
			return err
		}
	}
	return nil
}

// decodeLocalIDTable reads the local→global content id mapping: u8
// lit_version (must be 0), u16 n, then n x (u16 local_id, u16 name_len,
// name bytes). Each name is interned through the worker-local cache.
func decodeLocalIDTable(r *blob.Reader, names *intern.LocalCache[NodeExtra]) (map[uint16]uint64, error) {
	litVersion, err := r.ReadU8("nim.version")
	if err != nil {
		return nil, err
	}
	if litVersion != 0 {
		return nil, errkind.NewSerializationError(r.Size(), r.Offset(), r.Remaining(), "nim.version",
			"unsupported nim.version value %d", litVersion)
	}

	n, err := r.ReadU16("nim.count")
	if err != nil {
		return nil, err
	}

	remap := make(map[uint16]uint64, n)
	for i := uint16(0); i < n; i++ {
		localID, err := r.ReadU16("nim.id")
		if err != nil {
			return nil, err
		}
		if localID >= NodesPerBlock {
			return nil, errkind.NewSerializationError(r.Size(), r.Offset(), r.Remaining(), "nim.id",
				"illegal local id %d", localID)
		}

		nameLen, err := r.ReadU16("nim.name_len")
		if err != nil {
			return nil, err
		}
		name, err := r.ReadStr(int(nameLen), "nim.name")
		if err != nil {
			return nil, err
		}

		remap[localID] = names.Add(name)
	}

	return remap, nil
}

// remapParam0 rewrites every node's Param0 from a local content id to the
// global id assigned by the interning table. This is the only operation
// that transforms decoded node data.
func (mb *MapBlock) remapParam0(remap map[uint16]uint64) error {
	for i := range mb.Nodes {
		local := mb.Nodes[i].Param0
		global, ok := remap[local]
		if !ok {
			return errkind.NewSerializationError(0, 0, 0, "remap_param0",
				"no local id table entry for param0=%d at node %d", local, i)
		}
		mb.Nodes[i].Param0 = uint16(global)
	}
	return nil
}

// Owner returns the node's "owner" metadata value. Most nodes record it
// under the key "owner", but bones:bones uses "_owner".
func (n *Node) Owner() string {
	for _, v := range n.Metadata {
		if v.Key == "owner" || v.Key == "_owner" {
			return v.Value
		}
	}
	return ""
}

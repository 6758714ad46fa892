package sink

// schemaDDL is run against a freshly created output database; its
// presence is checked against sqlite_master before running it. Open
// removes any existing output file first, so reopening a path always
// starts from an empty database and creates the schema again.
//
// bad_blocks gives operators a queryable ledger of which block ids
// failed to decode and why, instead of only a log line.
const schemaDDL = `
create table node (
	id uint64 primary key,
	name text not null unique,
	anthropocene boolean not null default 0
);

create table actor (
	id uint64 primary key,
	name text not null unique
);

create table nodes (
	pos_id uint64 primary key,
	x integer not null,
	y integer not null,
	z integer not null,
	actor_id uint64 not null references actor(id),
	node_id uint64 not null references node(id),
	minegeld uint64 not null default 0
);

create table inventory (
	pos_id uint64 not null references nodes(pos_id),
	list_name text not null,
	item_string text not null
);

create table blocks (
	block_id uint64 primary key,
	x integer not null,
	y integer not null,
	z integer not null,
	uniform uint64 not null default 0,
	anthropocene boolean not null default 0,
	preserve boolean not null default 0
);

create table bad_blocks (
	block_id uint64 primary key,
	x integer not null,
	y integer not null,
	z integer not null,
	reason text not null
);

create index idx_inventory_pos_id on inventory(pos_id);
`

const schemaCheckSQL = `select count(1) from sqlite_master where type='table' and name='actor'`

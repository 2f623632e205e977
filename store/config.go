package store

import "github.com/jacentio/ssrf/internal/shard"

// Config holds configuration for the Store.
type Config struct {
	// DocumentTable is the name of the document table (partition key "id").
	// Default: "ssrf_documents"
	DocumentTable string

	// ReferenceTable is the name of the reference index table
	// (partition key "pk", sort key "source_ref").
	// Default: "ssrf_references"
	ReferenceTable string

	// UniqueTable is the name of the unique constraints table
	// (partition key "pk", sort key "sk").
	// Default: "ssrf_unique_constraints"
	UniqueTable string

	// NumShards is the number of shards for the reference index.
	// Higher values increase write throughput for heavily referenced serials
	// but require more parallel queries.
	// Default: 1 (no sharding, single query)
	// Max: 256
	//
	// Per-shard limits:
	//   - Writes: 1,000/sec
	//   - Reads: 3,000/sec
	NumShards int
}

// DefaultConfig returns sensible defaults for small datasets.
func DefaultConfig() Config {
	return Config{
		DocumentTable:  "ssrf_documents",
		ReferenceTable: "ssrf_references",
		UniqueTable:    "ssrf_unique_constraints",
		NumShards:      1,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	d := DefaultConfig()
	if c.DocumentTable == "" {
		c.DocumentTable = d.DocumentTable
	}
	if c.ReferenceTable == "" {
		c.ReferenceTable = d.ReferenceTable
	}
	if c.UniqueTable == "" {
		c.UniqueTable = d.UniqueTable
	}
	if c.NumShards < 1 {
		c.NumShards = 1
	}
	if c.NumShards > shard.MaxShards {
		c.NumShards = shard.MaxShards
	}
}

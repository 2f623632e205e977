// Package shard provides partition key generation for the reference index
// and unique constraint tables.
package shard

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
)

// MaxShards is the largest supported shard count. Shard suffixes are two hex digits.
const MaxShards = 256

// ReferencePK computes the sharded partition key for a reference index record
// pointing at targetRef from sourceRef.
// With numShards=1, all records go to shard "00".
// With numShards>1, records are distributed across shards based on a hash of sourceRef.
func ReferencePK(targetRef, sourceRef string, numShards int) string {
	if numShards <= 1 {
		return PK(targetRef, 0)
	}
	h := fnv.New32a()
	h.Write([]byte(sourceRef))
	return PK(targetRef, int(h.Sum32()%uint32(min(numShards, MaxShards))))
}

// PK returns the partition key of one shard of targetRef.
func PK(targetRef string, shard int) string {
	return fmt.Sprintf("%s#%02x", targetRef, shard)
}

// UniqueConstraintPK computes a hash-distributed partition key for a unique constraint.
// Each constraint lands on its own partition.
func UniqueConstraintPK(scope, entityType, field, value string) string {
	data := fmt.Sprintf("%s#%s#%s#%s", scope, entityType, field, value)
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:16])
}

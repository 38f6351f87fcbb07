// Package ring implements a consistent-hash ring for shard selection.
//
// Keys and shard IDs are both placed on a circle of uint32 positions via a
// SHA-1-derived hash. A key belongs to the first shard clockwise from its
// position. Each physical shard gets many virtual nodes on the ring so
// ownership spreads evenly instead of collapsing onto a handful of lucky
// hash values.
//
// The ring built here is immutable: it is constructed once from a fixed
// shard list and never mutated afterward. There is no AddShard/RemoveShard
// — rebalancing a live ring is out of scope.
package ring

import (
	"crypto/sha1"
	"sort"
	"strconv"
)

// Ring is a read-only consistent-hash ring. The zero value is not usable;
// construct with Build.
type Ring struct {
	positions []uint32          // sorted ring positions
	owners    map[uint32]string // position -> shard ID
	shards    []string          // original shard list, in the order given to Build
}

// Build places vnodes virtual positions per shard on the ring and returns
// the resulting Ring. Shards is deduplicated; order does not affect the
// resulting key assignment. A nil or empty shards list yields a Ring whose
// Pick always returns "".
func Build(shards []string, vnodes int) *Ring {
	if vnodes <= 0 {
		vnodes = 1
	}

	seen := make(map[string]bool, len(shards))
	uniq := make([]string, 0, len(shards))
	for _, s := range shards {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		uniq = append(uniq, s)
	}

	r := &Ring{
		owners: make(map[uint32]string, len(uniq)*vnodes),
		shards: uniq,
	}

	for _, shard := range uniq {
		for i := 0; i < vnodes; i++ {
			pos := hashVnode(shard, i)
			r.owners[pos] = shard
		}
	}

	r.positions = make([]uint32, 0, len(r.owners))
	for pos := range r.owners {
		r.positions = append(r.positions, pos)
	}
	sort.Slice(r.positions, func(i, j int) bool { return r.positions[i] < r.positions[j] })

	return r
}

// Pick returns the shard ID responsible for key, or "" if the ring has no
// shards. The result is deterministic: the same key always maps to the
// same shard for a given Ring.
func (r *Ring) Pick(key string) string {
	if len(r.positions) == 0 {
		return ""
	}
	pos := hashKey(key)
	idx := r.search(pos)
	return r.owners[r.positions[idx]]
}

// Shards returns the distinct shard IDs the ring was built with, in the
// order passed to Build (after deduplication).
func (r *Ring) Shards() []string {
	out := make([]string, len(r.shards))
	copy(out, r.shards)
	return out
}

// search returns the index of the first position >= pos, wrapping to 0 if
// pos is greater than every position on the ring.
func (r *Ring) search(pos uint32) int {
	idx := sort.Search(len(r.positions), func(i int) bool {
		return r.positions[i] >= pos
	})
	if idx == len(r.positions) {
		idx = 0
	}
	return idx
}

func hashVnode(shard string, i int) uint32 {
	return hashKey(shard + "#" + strconv.Itoa(i))
}

// hashKey truncates a SHA-1 digest to its first four bytes, big-endian.
func hashKey(key string) uint32 {
	sum := sha1.Sum([]byte(key))
	return uint32(sum[0])<<24 | uint32(sum[1])<<16 | uint32(sum[2])<<8 | uint32(sum[3])
}

package sim

import (
	"encoding/binary"
	"time"

	"golang.org/x/crypto/blake2b"
)

// deriveSeed mixes a parent seed with an index. Matches and the policies
// inside them get seeds that are independent of worker scheduling.
func deriveSeed(parent uint64, index uint64) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], parent)
	binary.LittleEndian.PutUint64(buf[8:], index)
	sum := blake2b.Sum256(buf[:])
	return binary.LittleEndian.Uint64(sum[:8])
}

// MatchSeed returns the seed of match index within a run.
func MatchSeed(runSeed uint64, index int) uint64 {
	return deriveSeed(runSeed, uint64(index))
}

func timeSeed() uint64 {
	return uint64(time.Now().UnixNano())
}

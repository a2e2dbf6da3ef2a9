package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// SerializationChecksum is a deterministic fingerprint of a snapshot.
// Two matches played from the same seed produce the same checksums turn by
// turn, which is how replays and concurrent runs are checked for drift.
type SerializationChecksum struct {
	Hash      string // SHA-256 of the canonical representation
	Timestamp string
	Version   int
}

// ComputeChecksum hashes the canonical representation of the snapshot.
// Instance IDs and timestamps are excluded because they are random.
func (snapshot *MatchSnapshot) ComputeChecksum() (*SerializationChecksum, error) {
	hash := sha256.New()
	if _, err := hash.Write([]byte(snapshot.canonical())); err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}
	return &SerializationChecksum{
		Hash:      hex.EncodeToString(hash.Sum(nil)),
		Timestamp: snapshot.Timestamp.Format("2006-01-02T15:04:05.000Z"),
		Version:   1,
	}, nil
}

// canonical renders the snapshot independent of map order. Hand contents
// are sorted because hand order carries no meaning.
func (snapshot *MatchSnapshot) canonical() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "MATCH:%s|%d|%s|%d|%t\n",
		snapshot.MatchID,
		snapshot.Turn,
		snapshot.Phase,
		snapshot.ActivePlayer,
		snapshot.Over,
	)
	if snapshot.Result != nil {
		fmt.Fprintf(&buf, "RESULT:%d|%s|%d\n", snapshot.Result.Winner, snapshot.Result.Reason, snapshot.Result.Turns)
	}

	for _, player := range snapshot.Players {
		fmt.Fprintf(&buf, "PLAYER:%d|%s|%s|%d|%d|%d|%d\n",
			player.Seat,
			player.Name,
			player.Archetype,
			player.Prizes,
			player.DeckCount,
			player.HandCount,
			player.DiscardCount,
		)
		for _, c := range player.Conditions {
			fmt.Fprintf(&buf, "  CONDITION:%s\n", c)
		}
		for _, d := range player.AttackLog {
			fmt.Fprintf(&buf, "  DAMAGE:%d\n", d)
		}

		usage := make([]string, 0, len(player.Usage))
		for name := range player.Usage {
			usage = append(usage, name)
		}
		sort.Strings(usage)
		for _, name := range usage {
			fmt.Fprintf(&buf, "  USAGE:%s=%d\n", name, player.Usage[name])
		}

		hand := make([]string, 0, len(player.Hand))
		for _, c := range player.Hand {
			hand = append(hand, c.CardID)
		}
		sort.Strings(hand)
		for _, id := range hand {
			fmt.Fprintf(&buf, "  HAND:%s\n", id)
		}

		if player.Active != nil {
			writeCard(&buf, "ACTIVE", *player.Active)
		}
		for _, c := range player.Bench {
			writeCard(&buf, "BENCH", c)
		}
	}
	return buf.String()
}

func writeCard(buf *bytes.Buffer, zone string, c CardView) {
	fmt.Fprintf(buf, "  %s:%s|%d|%d\n", zone, c.CardID, c.HP, c.Resources)
}

package idhash

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

// ComputeJourneyID computes a deterministic journey_id using SHA256.
// Formula: SHA256(channel|timestamp_ms per touchpoint, joined by ";", plus
// converted flag and conversion time).
// Returns hex-encoded hash (64 characters).
func ComputeJourneyID(j *domain.Journey) string {
	parts := make([]string, 0, len(j.Touchpoints)+1)
	for _, tp := range j.Touchpoints {
		parts = append(parts, fmt.Sprintf("%s|%d", tp.Channel, tp.TimestampMs))
	}
	parts = append(parts, fmt.Sprintf("%t|%d", j.Converted, j.ConversionTime))

	hash := sha256.Sum256([]byte(strings.Join(parts, ";")))
	return hex.EncodeToString(hash[:])
}

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(seed|journey_count|model_ids joined by ",").
// Returns hex-encoded hash (64 characters).
func ComputeRunID(seed int64, journeyCount int, modelIDs []string) string {
	data := fmt.Sprintf("%d|%d|%s", seed, journeyCount, strings.Join(modelIDs, ","))
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// DeriveSeed derives a worker or resample seed from a top-level seed and an
// index. Distinct indexes yield independent streams regardless of how work
// is split across goroutines.
func DeriveSeed(seed int64, index int) int64 {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], uint64(seed))
	binary.BigEndian.PutUint64(buf[8:16], uint64(index))
	hash := sha256.Sum256(buf[:])
	// Mask the sign bit so the result is always a valid non-negative seed.
	return int64(binary.BigEndian.Uint64(hash[0:8]) & (1<<63 - 1))
}

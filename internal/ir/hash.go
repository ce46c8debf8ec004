package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
)

// Domain prefixes for digests. The version suffix allows algorithm migration.
const (
	DomainTrajectory = "relive/trajectory/v1"
	DomainTables     = "relive/tables/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TrajectoryDigest identifies a run by its emitted ticks. Two runs with the
// same seed, selection, statistics and tables have the same digest.
func TrajectoryDigest(ticks []TickRecord) (string, error) {
	if ticks == nil {
		ticks = []TickRecord{}
	}
	canonical, err := MarshalCanonical(ticks)
	if err != nil {
		return "", fmt.Errorf("TrajectoryDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTrajectory, canonical), nil
}

// SourceFile is one input of a compiled table set.
type SourceFile struct {
	Name string
	Data []byte
}

// TablesDigest identifies a table set by its source files. File order does
// not matter.
func TablesDigest(files []SourceFile) string {
	sorted := slices.Clone(files)
	slices.SortFunc(sorted, func(a, b SourceFile) int {
		return compareUTF16(a.Name, b.Name)
	})
	var data []byte
	for _, f := range sorted {
		data = append(data, f.Name...)
		data = append(data, 0x00)
		data = append(data, f.Data...)
		data = append(data, 0x00)
	}
	return hashWithDomain(DomainTables, data)
}

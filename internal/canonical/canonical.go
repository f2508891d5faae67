// Package canonical normalizes raw diff records into a deterministic,
// order-independent form and derives stable content hashes from it. All
// functions are pure; malformed input is the caller's contract violation.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/marcus/driftsync/internal/models"
)

const componentIDPrefix = "cmp-"

// SyntheticComponentID derives a stable component ID from a display name.
// Used for legacy diff records that carry no component ID.
func SyntheticComponentID(name string) string {
	sum := sha256.Sum256([]byte(name))
	return componentIDPrefix + hex.EncodeToString(sum[:])[:12]
}

// hashPayload hashes the canonical JSON serialization of v. encoding/json
// marshals map keys in sorted order, recursively, which makes the
// serialization independent of insertion order. Set-like lists must be
// pre-sorted by the caller.
func hashPayload(v any) string {
	// Marshal cannot fail on the map/string/slice payloads hashed here.
	data, _ := json.Marshal(v)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// sortedSet deduplicates and lexicographically sorts a string list.
func sortedSet(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Canonicalize normalizes one raw diff record. Legacy records (display name
// only) get a synthetic component ID derived from the name, so the same
// legacy diff always canonicalizes identically.
func Canonicalize(raw models.RawDiff) models.CanonicalDiffItem {
	id := raw.ComponentID
	ref := raw.ComponentName
	if raw.Legacy {
		id = SyntheticComponentID(raw.ComponentName)
	}
	if ref == "" {
		ref = id
	}

	changes := sortedSet(raw.ChangeTypes)

	payload := map[string]any{
		"componentId": id,
		"changes":     changes,
	}
	if raw.Variant != "" {
		payload["variant"] = raw.Variant
	}
	if raw.Severity != "" {
		payload["severity"] = string(raw.Severity)
	}

	return models.CanonicalDiffItem{
		ComponentID:  id,
		ComponentRef: ref,
		Variant:      raw.Variant,
		Changes:      changes,
		Severity:     raw.Severity,
		DiffHash:     hashPayload(payload),
	}
}

// CanonicalizeBatch canonicalizes a batch of raw diffs, deduplicates by diff
// hash (duplicates are definitionally identical, last wins) and returns the
// items in stable (componentRef, variant, diffHash) order.
func CanonicalizeBatch(raws []models.RawDiff) []models.CanonicalDiffItem {
	byHash := make(map[string]models.CanonicalDiffItem, len(raws))
	for _, raw := range raws {
		item := Canonicalize(raw)
		byHash[item.DiffHash] = item
	}

	items := make([]models.CanonicalDiffItem, 0, len(byHash))
	for _, item := range byHash {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].ComponentRef != items[j].ComponentRef {
			return items[i].ComponentRef < items[j].ComponentRef
		}
		if items[i].Variant != items[j].Variant {
			return items[i].Variant < items[j].Variant
		}
		return items[i].DiffHash < items[j].DiffHash
	})
	return items
}

// ComputeOperationHash derives the idempotency key for a sync batch. All
// three inputs are sorted independently before serialization, so equal
// batches hash identically regardless of input ordering.
func ComputeOperationHash(components []string, modes map[string]models.Direction, diffHashes []string) string {
	comps := append([]string(nil), components...)
	sort.Strings(comps)
	hashes := append([]string(nil), diffHashes...)
	sort.Strings(hashes)

	// Maps marshal with sorted keys; copy to plain strings for stable output.
	modeMap := make(map[string]string, len(modes))
	for id, d := range modes {
		modeMap[id] = string(d)
	}

	return hashPayload(map[string]any{
		"components": comps,
		"modes":      modeMap,
		"diffHashes": hashes,
	})
}

// HashSnapshotFields hashes a set of per-component flat field maps. Used for
// pre/post state hashes on undo stack entries.
func HashSnapshotFields(fields map[string]map[string]string) string {
	return hashPayload(fields)
}

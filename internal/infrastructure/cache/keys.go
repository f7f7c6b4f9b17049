package cache

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
)

// Cache keys are colon-delimited hierarchical paths. The helpers here and
// the invalidation globs below are the only places that spell them out.
const (
	HospitalListPattern  = "hospitals:list:*"
	HospitalCountPattern = "hospitals:count:*"
	PetListPattern       = "pets:list:*"
	PetCountPattern      = "pets:count:*"
	SearchPattern        = "search:*"
)

// HospitalKey returns the key caching a single hospital.
func HospitalKey(id uuid.UUID) string {
	return "hospital:" + id.String()
}

// HospitalListKey returns the key caching one filtered hospital listing.
func HospitalListKey(filterHash string) string {
	return "hospitals:list:" + filterHash
}

// HospitalCountKey returns the key caching one filtered hospital count.
func HospitalCountKey(filterHash string) string {
	return "hospitals:count:" + filterHash
}

// PetKey returns the key caching a single pet.
func PetKey(id uuid.UUID) string {
	return "pet:" + id.String()
}

// PetListKey returns the key caching one filtered pet listing.
func PetListKey(filterHash string) string {
	return "pets:list:" + filterHash
}

// PetCountKey returns the key caching one filtered pet count.
func PetCountKey(filterHash string) string {
	return "pets:count:" + filterHash
}

// ProcessedEventKey returns the key recording that a queue message has
// already been applied.
func ProcessedEventKey(messageID string) string {
	return "invalidation:processed:" + messageID
}

// SearchKey returns the key caching one search result. The free-form query
// is base64-encoded so it always stays a single key segment.
func SearchKey(query string) string {
	return "search:" + base64.RawURLEncoding.EncodeToString([]byte(query))
}

// FilterHash derives a short stable digest of a filter value for use in
// list and count keys. Equal filters always hash to the same value.
func FilterHash(filter any) string {
	data, err := json.Marshal(filter)
	if err != nil {
		return "invalid"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}

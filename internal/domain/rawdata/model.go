package rawdata

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Payload is an upstream response kept verbatim for audit and replay.
type Payload struct {
	Source      string
	EntityType  string
	EntityKey   string
	Season      string
	ContentType string
	Body        string
	BodyHash    string
	FetchedAt   time.Time
}

// NewPayload hashes body so repeated fetches of an unchanged document
// deduplicate on write.
func NewPayload(entityType, entityKey, contentType string, body []byte, fetchedAt time.Time) Payload {
	sum := sha256.Sum256(body)
	return Payload{
		EntityType:  entityType,
		EntityKey:   entityKey,
		ContentType: contentType,
		Body:        string(body),
		BodyHash:    hex.EncodeToString(sum[:]),
		FetchedAt:   fetchedAt.UTC(),
	}
}

package engine

import "github.com/google/uuid"

// UUIDv7Generator is the default IDGenerator. UUIDv7 ids carry their
// creation time in the high bits, so journal rows sort roughly by arrival
// when read by id. Ordering still comes from seq.
type UUIDv7Generator struct{}

// Generate returns a hyphenated UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

package catalog

import (
	"time"

	"github.com/google/uuid"
)

// FirstAccessoryID is the ID given to the first thermostat. ID 1 belongs
// to the bridge accessory itself.
const FirstAccessoryID uint64 = 2

// namespace scopes the name-based UUIDs derived from serials.
var namespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("nolongerevil-bridge"))

// Record is the stored identity of one accessory.
type Record struct {
	Serial      string    `json:"serial"`
	Name        string    `json:"name"`
	AccessoryID uint64    `json:"accessory_id"`
	UUID        string    `json:"uuid"`
	CreatedAt   time.Time `json:"created_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// UUIDFor returns the stable UUID for serial. The same serial always
// yields the same UUID.
func UUIDFor(serial string) string {
	return uuid.NewSHA1(namespace, []byte(serial)).String()
}

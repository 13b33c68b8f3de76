package models

import (
	"strings"

	"github.com/google/uuid"
)

// CanonicalUserID maps any caller-supplied identifier onto a stable UUID.
// UUIDs pass through normalised; anything else becomes UUIDv5(URL, "onb:"+raw).
func CanonicalUserID(raw string) string {
	raw = strings.TrimSpace(raw)
	if id, err := uuid.Parse(raw); err == nil {
		return id.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("onb:"+raw)).String()
}

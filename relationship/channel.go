package relationship

import (
	"strings"

	"vault/apperr"
	"vault/models"
)

// ChannelSeparator joins the two identifiers of a channel id. Identifiers
// are UUIDs issued by the identity provider and never contain it.
const ChannelSeparator = "_"

// DeriveChannelID returns the id of the channel shared by a and b. The pair
// is sorted first so the result does not depend on argument order. Callers
// must have checked the pair with ValidatePair.
func DeriveChannelID(a, b string) models.ChannelID {
	if b < a {
		a, b = b, a
	}
	return models.ChannelID(a + ChannelSeparator + b)
}

// ValidatePair rejects pairs DeriveChannelID is not defined for.
func ValidatePair(a, b string) error {
	if a == "" || b == "" {
		return apperr.InvalidArg("user id is required")
	}
	if strings.Contains(a, ChannelSeparator) || strings.Contains(b, ChannelSeparator) {
		return apperr.InvalidArg("malformed user id")
	}
	if a == b {
		return apperr.ErrSelfRelationship
	}
	return nil
}

package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fingerprint derives the dedup key for a transaction from its owner and the
// four content fields. Identical logical transactions always hash to the same
// value, so re-importing overlapping CSV periods is idempotent.
//
// Two distinct real-world transactions sharing all four fields (for example
// two identical grocery purchases on the same day) collide and are treated as
// one. That is a documented limitation of content-based dedup, not a bug.
func Fingerprint(ownerID uuid.UUID, date time.Time, amount decimal.Decimal, counterparty, description string) string {
	// decimal.String trims trailing zeros, so 45.50 and 45.5 hash equally.
	key := ownerID.String() + "|" +
		date.Format("2006-01-02") + "|" +
		amount.String() + "|" +
		counterparty + "|" +
		description
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

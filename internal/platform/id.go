package platform

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const refAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
const refSuffixLength = 6

func NewID() string {
	return uuid.New().String()
}

// NewPaymentReference builds a provider-facing payment reference that is
// unique per attempt: tenant id plus a nanosecond timestamp plus random
// suffix, so retries never collide on the provider side.
func NewPaymentReference(tenantID string) string {
	b := make([]byte, refSuffixLength)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	for i := range b {
		b[i] = refAlphabet[b[i]%byte(len(refAlphabet))]
	}
	return fmt.Sprintf("gv-%s-%d-%s", tenantID, time.Now().UnixNano(), string(b))
}

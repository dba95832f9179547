package helpers

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const Base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// RandomString draws n characters from alphabet using crypto/rand.
func RandomString(n int, alphabet string) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}

// BookingReference returns the customer-facing reference printed on tickets:
// "BK", the last 8 digits of the unix millis, then 4 upper-case base36 chars.
func BookingReference(now time.Time) (string, error) {
	millis := strconv.FormatInt(now.UnixMilli(), 10)
	if len(millis) > 8 {
		millis = millis[len(millis)-8:]
	}
	suffix, err := RandomString(4, Base36)
	if err != nil {
		return "", err
	}
	return "BK" + millis + strings.ToUpper(suffix), nil
}

package auth

import (
	"crypto/subtle"
	"fmt"
	"time"
)

// GatePIN is the debug admin gate code for t: the clock's HHMM read
// backwards, so 14:37 gives "7341".
func GatePIN(t time.Time) string {
	hhmm := []byte(fmt.Sprintf("%02d%02d", t.Hour(), t.Minute()))
	for i, j := 0, len(hhmm)-1; i < j; i, j = i+1, j-1 {
		hhmm[i], hhmm[j] = hhmm[j], hhmm[i]
	}
	return string(hhmm)
}

// CheckGatePIN accepts the code for the current minute or the one before it,
// so a code typed across a minute boundary still works.
func CheckGatePIN(pin string, now time.Time) bool {
	for _, t := range []time.Time{now, now.Add(-time.Minute)} {
		if subtle.ConstantTimeCompare([]byte(pin), []byte(GatePIN(t))) == 1 {
			return true
		}
	}
	return false
}

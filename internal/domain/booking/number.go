package booking

import (
	"fmt"
	"math/rand"
	"time"
)

// NewNumber generates the human-readable booking number, distinct from the
// internal ID. Format: BK<unix-epoch><4 random digits>.
func NewNumber(now time.Time) string {
	return fmt.Sprintf("BK%d%04d", now.Unix(), rand.Intn(10000))
}

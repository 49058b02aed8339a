// Package ident generates collision-resistant string identifiers for
// store records. IDs are a base-36 timestamp followed by a base-36 random
// suffix, so they sort roughly by creation order and are safe as plain
// primary keys in every backend.
package ident

import (
	"math/rand/v2"
	"strconv"
	"time"
)

// suffixLen is the number of base-36 characters appended after the
// timestamp component.
const suffixLen = 9

// New returns a new unique identifier. It never fails; uniqueness is
// probabilistic (36^9 suffix values per millisecond), which is accepted
// as a trade-off rather than guaranteed.
func New() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return ts + randomSuffix()
}

func randomSuffix() string {
	s := strconv.FormatUint(rand.Uint64(), 36)
	if len(s) >= suffixLen {
		return s[:suffixLen]
	}
	// Left-pad so every suffix has the same width.
	pad := make([]byte, suffixLen-len(s))
	for i := range pad {
		pad[i] = '0'
	}
	return string(pad) + s
}

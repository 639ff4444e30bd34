package cache

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// SimulationKeyPrefix prefixes cached simulation results.
const SimulationKeyPrefix = "sim:"

// Key hashes the JSON encoding of v. Struct fields encode in declaration
// order, so equal values give equal keys.
func Key(prefix string, v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("cache: encode key: %w", err)
	}
	return prefix + strconv.FormatUint(xxhash.Sum64(raw), 16), nil
}

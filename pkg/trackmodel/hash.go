package trackmodel

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"math"
	"sort"
	"strconv"
)

// Hash returns a content hash of the model. Spots are hashed in ID order
// and edges as sorted endpoint pairs, so neither insertion order nor edge
// direction changes the result.
func (m *Model) Hash() string {
	if len(m.spots) == 0 {
		return "empty"
	}

	h := sha256.New()
	writeStringHash(h, m.SpaceUnits)
	writeStringHash(h, m.TimeUnits)

	for _, s := range m.Spots() {
		writeIntHash(h, s.ID)
		writeStringHash(h, s.Name)
		for _, k := range s.FeatureKeys() {
			v, _ := s.Feature(k)
			writeStringHash(h, k)
			writeFloatHash(h, v)
		}
		_, _ = h.Write([]byte{1})
	}

	pairs := make([][2]int, len(m.edges))
	for i, e := range m.edges {
		a, b := e.Source.ID, e.Target.ID
		if a > b {
			a, b = b, a
		}
		pairs[i] = [2]int{a, b}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	for _, p := range pairs {
		writeIntHash(h, p[0])
		writeIntHash(h, p[1])
	}

	return hex.EncodeToString(h.Sum(nil))
}

func writeStringHash(w io.Writer, v string) {
	_, _ = io.WriteString(w, v)
	_, _ = w.Write([]byte{0})
}

func writeIntHash(w io.Writer, v int) {
	_, _ = io.WriteString(w, strconv.Itoa(v))
	_, _ = w.Write([]byte{0})
}

func writeFloatHash(w io.Writer, v float64) {
	_, _ = io.WriteString(w, strconv.FormatUint(math.Float64bits(v), 16))
	_, _ = w.Write([]byte{0})
}

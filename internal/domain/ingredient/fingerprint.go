package ingredient

import (
	"encoding/binary"
	"math"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes the content of the table. Tables built from the same
// definitions hash equal in every process.
func (t *UnitTable) Fingerprint() uint64 {
	var buf []byte
	for _, u := range t.units {
		buf = append(buf, u.Name...)
		buf = append(buf, 0)
		buf = append(buf, u.Dimension...)
		buf = append(buf, 0)
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(u.Factor))

		spellings := make([]string, 0, len(u.Synonyms))
		for _, s := range u.Synonyms {
			spellings = append(spellings, CanonicalizeUnit(s))
		}
		sort.Strings(spellings)
		for _, s := range spellings {
			buf = append(buf, s...)
			buf = append(buf, 0)
		}
		buf = append(buf, 0xff)
	}
	return xxhash.Sum64(buf)
}

// Fingerprint hashes the content of the table
func (t *DensityTable) Fingerprint() uint64 {
	var buf []byte
	for _, name := range t.Names() {
		buf = append(buf, name...)
		buf = append(buf, 0)
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(t.densities[name]))
	}
	return xxhash.Sum64(buf)
}

// Fingerprint identifies the reference data behind n. Two normalizers with
// equal fingerprints produce equal results for every line.
func (n *Normalizer) Fingerprint() string {
	buf := binary.LittleEndian.AppendUint64(nil, n.units.Fingerprint())
	buf = binary.LittleEndian.AppendUint64(buf, n.densities.Fingerprint())
	return strconv.FormatUint(xxhash.Sum64(buf), 16)
}

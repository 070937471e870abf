package relation

import "encoding/binary"

// Int64Codec is the Codec for relations whose codomain is a plain int64,
// such as Sequences, modelled as a small fixed array of counters rather
// than a map, one domain key per named slot.
type Int64Codec struct{}

func (Int64Codec) Encode(v Value) ([]byte, error) {
	n, _ := v.(int64)
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(n))
	return buf, nil
}

func (Int64Codec) Decode(b []byte) (Value, error) {
	if len(b) < 8 {
		return int64(0), nil
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// SequenceKey returns the domain key for sequence slot i.
func SequenceKey(i int) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(i))
	return buf
}

// Well-known Sequences slots.
const (
	SeqMaxObject = iota // highest object id ever allocated
	SeqCount            // number of defined slots; keep last
)

package wal

type RecordType uint8

const (
	// RecordPlace is a place-order intent. It is the only record type
	// today; the type byte stays in the frame so the format survives
	// new intents without a version bump.
	RecordPlace RecordType = iota
)

// Record is one durable log entry. Seq is assigned by the log itself
// and is strictly increasing across segments.
type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

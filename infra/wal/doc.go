// Package wal implements a segmented write-ahead log for order
// intents. Frames carry a record type, a monotonic sequence number,
// and a CRC-32 checksum; segments rotate by size and can be dropped
// once a snapshot covers them.
package wal

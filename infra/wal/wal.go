package wal

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Frame layout: [type:1][seq:8][time:8][len:4][payload][crc:4].
// The CRC covers header and payload.
const headerSize = 1 + 8 + 8 + 4

// Config defines a WAL instance. Zero values get sane defaults.
type Config struct {
	Dir         string
	SegmentSize int64
}

// WAL is an append-only, CRC-framed intent log split into size-bound
// segments. Sequence numbers are assigned on append and resume across
// restarts.
type WAL struct {
	mu       sync.Mutex
	dir      string
	segSize  int64
	current  *segment
	segIndex int
	nextSeq  uint64
}

// Open creates or resumes a WAL in cfg.Dir. An existing log continues
// its last segment and sequence numbering.
func Open(cfg Config) (*WAL, error) {
	if cfg.Dir == "" {
		cfg.Dir = "./wal"
	}
	if cfg.SegmentSize == 0 {
		cfg.SegmentSize = 2 * 1024 * 1024
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	index, lastSeq, err := scanSegments(cfg.Dir)
	if err != nil {
		return nil, err
	}

	seg, err := openSegment(cfg.Dir, index)
	if err != nil {
		return nil, err
	}

	return &WAL{
		dir:      cfg.Dir,
		segSize:  cfg.SegmentSize,
		current:  seg,
		segIndex: index,
		nextSeq:  lastSeq + 1,
	}, nil
}

// scanSegments finds the newest segment index and the highest
// sequence number written so far.
func scanSegments(dir string) (index int, lastSeq uint64, err error) {
	files, err := filepath.Glob(filepath.Join(dir, "segment-*.wal"))
	if err != nil {
		return 0, 0, err
	}
	if len(files) == 0 {
		return 0, 0, nil
	}
	sort.Strings(files)
	last := files[len(files)-1]
	lastSeq, err = maxSeqInSegment(last)
	if err != nil {
		return 0, 0, err
	}
	idx, err := segmentIndex(last)
	if err != nil {
		return 0, 0, err
	}
	return idx, lastSeq, nil
}

// Append writes one record and returns its assigned sequence number.
func (w *WAL) Append(t RecordType, payload []byte) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	seq := w.nextSeq
	payloadLen := uint32(len(payload))

	buf := make([]byte, headerSize+int(payloadLen)+4)
	buf[0] = byte(t)
	binary.BigEndian.PutUint64(buf[1:9], seq)
	binary.BigEndian.PutUint64(buf[9:17], uint64(time.Now().UnixNano()))
	binary.BigEndian.PutUint32(buf[17:21], payloadLen)
	copy(buf[headerSize:], payload)
	binary.BigEndian.PutUint32(buf[headerSize+int(payloadLen):], crcSum(buf[:headerSize+int(payloadLen)]))

	if err := w.current.append(buf); err != nil {
		return 0, err
	}
	w.nextSeq++

	if w.current.offset >= w.segSize {
		if err := w.rotate(); err != nil {
			return seq, err
		}
	}
	return seq, nil
}

// Dir returns the directory the log lives in.
func (w *WAL) Dir() string {
	return w.dir
}

// LastSeq returns the sequence number of the last appended record, 0
// when the log is empty.
func (w *WAL) LastSeq() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.nextSeq - 1
}

// Sync flushes the current segment to stable storage.
func (w *WAL) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current.sync()
}

// Close syncs and closes the current segment.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.current.sync(); err != nil {
		return err
	}
	return w.current.close()
}

func (w *WAL) rotate() error {
	if err := w.current.sync(); err != nil {
		return err
	}
	if err := w.current.close(); err != nil {
		return err
	}
	w.segIndex++
	seg, err := openSegment(w.dir, w.segIndex)
	if err != nil {
		return err
	}
	w.current = seg
	return nil
}

// TruncateBefore removes whole segments whose records are all covered
// by a snapshot at seq. The current segment is never removed.
func (w *WAL) TruncateBefore(seq uint64) error {
	w.mu.Lock()
	currentPath := segmentPath(w.dir, w.segIndex)
	w.mu.Unlock()

	files, err := filepath.Glob(filepath.Join(w.dir, "segment-*.wal"))
	if err != nil {
		return err
	}
	for _, path := range files {
		if path == currentPath {
			continue
		}
		maxSeq, err := maxSeqInSegment(path)
		if err != nil {
			continue
		}
		if maxSeq <= seq {
			_ = os.Remove(path)
		}
	}
	return nil
}

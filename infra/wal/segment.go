package wal

import (
	"fmt"
	"os"
	"path/filepath"
)

type segment struct {
	file   *os.File
	offset int64
}

func segmentPath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("segment-%06d.wal", index))
}

func segmentIndex(path string) (int, error) {
	var idx int
	_, err := fmt.Sscanf(filepath.Base(path), "segment-%06d.wal", &idx)
	return idx, err
}

func openSegment(dir string, index int) (*segment, error) {
	f, err := os.OpenFile(segmentPath(dir, index), os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &segment{file: f, offset: info.Size()}, nil
}

func (s *segment) append(b []byte) error {
	n, err := s.file.Write(b)
	if err != nil {
		return err
	}
	s.offset += int64(n)
	return nil
}

func (s *segment) sync() error {
	return s.file.Sync()
}

func (s *segment) close() error {
	return s.file.Close()
}

// maxSeqInSegment scans one segment and returns the highest sequence
// number it holds. Used to resume sequencing on open and to decide
// snapshot-based truncation. Frames are verified the same way Replay
// verifies them: a torn or corrupt frame ends the scan, so numbering
// resumes after the last record that passes its checksum.
func maxSeqInSegment(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var max uint64
	for {
		rec, err := readRecord(f)
		if err != nil {
			return max, nil
		}
		if rec.Seq > max {
			max = rec.Seq
		}
	}
}

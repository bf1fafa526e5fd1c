package wal

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWAL_AppendAndReplay(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(Config{Dir: dir})
	require.NoError(t, err)

	const n = 100
	for i := 0; i < n; i++ {
		seq, err := w.Append(RecordPlace, []byte(fmt.Sprintf("order-%d", i)))
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), seq)
	}
	require.NoError(t, w.Close())

	var got []string
	lastSeq, err := Replay(dir, 0, func(rec *Record) error {
		assert.Equal(t, RecordPlace, rec.Type)
		got = append(got, string(rec.Data))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(n), lastSeq)
	require.Len(t, got, n)
	assert.Equal(t, "order-0", got[0])
	assert.Equal(t, "order-99", got[n-1])
}

func TestWAL_ReplaySkipsCoveredRecords(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err := w.Append(RecordPlace, []byte{byte(i)})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	var seqs []uint64
	_, err = Replay(dir, 7, func(rec *Record) error {
		seqs = append(seqs, rec.Seq)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{8, 9, 10}, seqs)
}

func TestWAL_SequenceResumesAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	_, err = w.Append(RecordPlace, []byte("a"))
	require.NoError(t, err)
	_, err = w.Append(RecordPlace, []byte("b"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w, err = Open(Config{Dir: dir})
	require.NoError(t, err)
	seq, err := w.Append(RecordPlace, []byte("c"))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), seq)
	assert.Equal(t, uint64(3), w.LastSeq())
	require.NoError(t, w.Close())
}

func TestWAL_RotationBySize(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(Config{Dir: dir, SegmentSize: 64})
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		_, err := w.Append(RecordPlace, []byte("0123456789"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	files, err := filepath.Glob(filepath.Join(dir, "segment-*.wal"))
	require.NoError(t, err)
	assert.Greater(t, len(files), 1)

	// Replay still sees every record, in order, across segments.
	var count int
	lastSeq, err := Replay(dir, 0, func(*Record) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 20, count)
	assert.Equal(t, uint64(20), lastSeq)
}

func TestWAL_TruncateBefore(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(Config{Dir: dir, SegmentSize: 64})
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		_, err := w.Append(RecordPlace, []byte("0123456789"))
		require.NoError(t, err)
	}

	require.NoError(t, w.TruncateBefore(10))
	require.NoError(t, w.Close())

	var seqs []uint64
	_, err = Replay(dir, 0, func(rec *Record) error {
		seqs = append(seqs, rec.Seq)
		return nil
	})
	require.NoError(t, err)

	// Everything at or below seq 10 lived in dropped segments; the
	// tail survives contiguously up to the last record.
	require.NotEmpty(t, seqs)
	assert.Greater(t, seqs[0], uint64(8))
	assert.Equal(t, uint64(20), seqs[len(seqs)-1])
	for i := 1; i < len(seqs); i++ {
		assert.Equal(t, seqs[i-1]+1, seqs[i])
	}
}

func TestWAL_TornTailEndsReplayCleanly(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := w.Append(RecordPlace, []byte("payload"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	// Chop the last frame in half to simulate a crash mid-write.
	path := segmentPath(dir, 0)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-10))

	var count int
	lastSeq, err := Replay(dir, 0, func(*Record) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, uint64(4), lastSeq)
}

func TestWAL_SequenceResumesAfterCorruptTail(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := w.Append(RecordPlace, []byte("payload"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	// Scramble the seq field of the last frame's header. The CRC no
	// longer matches, so the garbage value must not leak into the
	// resume point.
	path := segmentPath(dir, 0)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	frameSize := headerSize + len("payload") + 4
	data[len(data)-frameSize+1] = 0xff
	require.NoError(t, os.WriteFile(path, data, 0o644))

	w, err = Open(Config{Dir: dir})
	require.NoError(t, err)
	seq, err := w.Append(RecordPlace, []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), seq)
	require.NoError(t, w.Close())
}

func TestWAL_CorruptPayloadFailsReplay(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	_, err = w.Append(RecordPlace, []byte("payload"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// Flip a payload byte without touching the frame length.
	path := segmentPath(dir, 0)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[headerSize] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Replay(dir, 0, func(*Record) error { return nil })
	assert.ErrorContains(t, err, "crc mismatch")
}

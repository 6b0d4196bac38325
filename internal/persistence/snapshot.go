package persistence

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/archipelago/internal/engine"
)

// SnapshotHeader is the first line of an exported snapshot, readable
// without decoding the body.
type SnapshotHeader struct {
	Version    int    `json:"version"`
	RunID      string `json:"run_id"`
	Step       uint64 `json:"step"`
	TakenAt    string `json:"taken_at"`
	Population int    `json:"population"`
	Nodes      int    `json:"nodes"`
}

const snapshotVersion = 1

// SnapshotPath returns the file name for a snapshot of the given run and
// step inside dir.
func SnapshotPath(dir, runID string, step uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%010d.json.zst", runID, step))
}

// WriteSnapshot exports snap to path as a JSON header line followed by the
// JSON body, zstd compressed. The file is written next to path and renamed
// into place so readers never see a partial export.
func WriteSnapshot(path string, snap *engine.Snapshot) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	header := SnapshotHeader{
		Version:    snapshotVersion,
		RunID:      snap.RunID,
		Step:       snap.Step,
		TakenAt:    snap.TakenAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Population: len(snap.People),
		Nodes:      len(snap.Nodes),
	}
	hb, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		return err
	}
	if err := json.NewEncoder(bw).Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (SnapshotHeader, *engine.Snapshot, error) {
	var header SnapshotHeader
	f, err := os.Open(path)
	if err != nil {
		return header, nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return header, nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return header, nil, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &header); err != nil {
		return header, nil, fmt.Errorf("decode header: %w", err)
	}
	if header.Version != snapshotVersion {
		return header, nil, errors.New("unsupported snapshot version")
	}

	var snap engine.Snapshot
	if err := json.NewDecoder(br).Decode(&snap); err != nil {
		return header, nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return header, &snap, nil
}

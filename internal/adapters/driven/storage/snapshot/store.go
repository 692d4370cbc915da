// Package snapshot persists a vector index as a single checksummed file.
//
// # File Format
//
//	offset  size  field
//	0       4     magic "RKBI"
//	4       2     format version (little endian)
//	6       8     payload length (little endian)
//	14      4     CRC-32 (IEEE) of the payload
//	18      n     gob-encoded payload: metadata and entries
//
// Any single corrupted byte is detected: in the header it breaks the magic,
// version or length check, in the payload or checksum it breaks the CRC.
//
// Saves write to a temporary file in the target directory and rename it over
// the destination, so readers see either the old or the new snapshot.
package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"hash/crc32"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
	"github.com/custodia-labs/rockybot/internal/logger"
)

const (
	magic      = "RKBI"
	version    = uint16(1)
	headerSize = 4 + 2 + 8 + 4
)

// Ensure Store implements the interface.
var _ driven.IndexStore = (*Store)(nil)

// payload is the gob-encoded body of a snapshot.
type payload struct {
	Model      string
	Dimensions int
	Metric     string
	ChunkSize  int
	Sources    []string
	CreatedAt  time.Time
	Entries    []entry
}

type entry struct {
	ChunkID string
	Source  string
	Text    string
	Vector  []float32
}

// Store reads and writes snapshot files.
type Store struct {
	newIndex driven.IndexFactory
}

// NewStore creates a snapshot store. newIndex builds the index that Load
// fills with the decoded entries.
func NewStore(newIndex driven.IndexFactory) *Store {
	return &Store{newIndex: newIndex}
}

// Save atomically replaces the snapshot at path.
func (s *Store) Save(ctx context.Context, path string, index driven.VectorIndex) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Encode(index)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	committed = true

	logger.Debug("snapshot: wrote %d bytes to %s", len(data), path)
	return nil
}

// Load reads the snapshot at path.
func (s *Store) Load(ctx context.Context, path string) (driven.VectorIndex, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no index at %s", domain.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	index, err := Decode(ctx, data, s.newIndex)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.Debug("snapshot: loaded %d entries from %s", index.Len(), path)
	return index, nil
}

// Encode serialises an index into the snapshot format.
func Encode(index driven.VectorIndex) ([]byte, error) {
	meta := index.Meta()
	p := payload{
		Model:      meta.Model,
		Dimensions: meta.Dimensions,
		Metric:     meta.Metric.String(),
		ChunkSize:  meta.ChunkSize,
		Sources:    meta.Sources,
		CreatedAt:  meta.CreatedAt,
	}
	for _, e := range index.Entries() {
		p.Entries = append(p.Entries, entry{ChunkID: e.ChunkID, Source: e.Source, Text: e.Text, Vector: e.Vector})
	}

	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(&p); err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}

	buf := make([]byte, headerSize, headerSize+body.Len())
	copy(buf[0:4], magic)
	binary.LittleEndian.PutUint16(buf[4:6], version)
	binary.LittleEndian.PutUint64(buf[6:14], uint64(body.Len()))
	binary.LittleEndian.PutUint32(buf[14:18], crc32.ChecksumIEEE(body.Bytes()))
	return append(buf, body.Bytes()...), nil
}

// Decode parses snapshot bytes into a new index. Every failure is reported
// as domain.ErrIndexCorrupt.
func Decode(ctx context.Context, data []byte, newIndex driven.IndexFactory) (driven.VectorIndex, error) {
	if len(data) < headerSize {
		return nil, corrupt("file is %d bytes, shorter than the header", len(data))
	}
	if string(data[0:4]) != magic {
		return nil, corrupt("bad magic %q", data[0:4])
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != version {
		return nil, corrupt("unsupported version %d", v)
	}
	body := data[headerSize:]
	if n := binary.LittleEndian.Uint64(data[6:14]); n != uint64(len(body)) {
		return nil, corrupt("payload length %d, header says %d", len(body), n)
	}
	if sum := crc32.ChecksumIEEE(body); sum != binary.LittleEndian.Uint32(data[14:18]) {
		return nil, corrupt("checksum mismatch")
	}

	var p payload
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&p); err != nil {
		return nil, corrupt("decoding payload: %v", err)
	}

	meta := domain.IndexMeta{
		Model:      p.Model,
		Dimensions: p.Dimensions,
		Metric:     domain.DistanceMetric(p.Metric),
		ChunkSize:  p.ChunkSize,
		Sources:    p.Sources,
		CreatedAt:  p.CreatedAt,
	}
	index, err := newIndex(meta)
	if err != nil {
		return nil, corrupt("invalid metadata: %v", err)
	}

	entries := make([]domain.IndexEntry, len(p.Entries))
	for i, e := range p.Entries {
		entries[i] = domain.IndexEntry{ChunkID: e.ChunkID, Source: e.Source, Text: e.Text, Vector: e.Vector}
	}
	if err := index.Add(ctx, entries...); err != nil {
		return nil, corrupt("%v", err)
	}
	return index, nil
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrIndexCorrupt, fmt.Sprintf(format, args...))
}

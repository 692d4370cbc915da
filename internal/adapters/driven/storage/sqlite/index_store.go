package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/custodia-labs/rockybot/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
	"github.com/custodia-labs/rockybot/internal/logger"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore keeps each vector index in its own SQLite file.
type IndexStore struct {
	newIndex driven.IndexFactory
}

// NewIndexStore creates an index store. newIndex builds the index that Load
// fills with the stored entries.
func NewIndexStore(newIndex driven.IndexFactory) *IndexStore {
	return &IndexStore{newIndex: newIndex}
}

// Save writes the index to a fresh database next to path and renames it over path.
func (s *IndexStore) Save(ctx context.Context, path string, index driven.VectorIndex) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmpPath := filepath.Join(dir, "."+filepath.Base(path)+".tmp-"+uuid.NewString())
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
			_ = os.Remove(tmpPath + "-journal")
		}
	}()

	if err := writeIndex(ctx, tmpPath, index); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return fmt.Errorf("setting index permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing index: %w", err)
	}
	committed = true

	logger.Debug("sqlite: wrote %d entries to %s", index.Len(), path)
	return nil
}

func writeIndex(ctx context.Context, path string, index driven.VectorIndex) error {
	// Rollback journal keeps the database in a single file once closed.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(DELETE)&_pragma=synchronous(FULL)")
	if err != nil {
		return fmt.Errorf("opening index database: %w", err)
	}
	defer db.Close()

	if err := migrate(db, migrations.Index()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	meta := index.Meta()
	sources, err := json.Marshal(meta.Sources)
	if err != nil {
		return fmt.Errorf("marshalling sources: %w", err)
	}
	createdAt := formatTime(meta.CreatedAt)

	entries := index.Entries()
	blobs := make([][]byte, len(entries))
	sum := newChecksum()
	sum.meta(meta.Model, meta.Dimensions, meta.Metric.String(), meta.ChunkSize, string(sources), createdAt)
	for i, e := range entries {
		blobs[i] = encodeVector(e.Vector)
		sum.entry(i, e.ChunkID, e.Source, e.Text, blobs[i])
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO index_meta (id, model, dimensions, metric, chunk_size, sources, created_at, checksum)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
	`, meta.Model, meta.Dimensions, meta.Metric.String(), meta.ChunkSize, string(sources), createdAt, int64(sum.Sum32()))
	if err != nil {
		return fmt.Errorf("saving index metadata: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO index_entries (position, chunk_id, source, text, vector) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing entry insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, i, e.ChunkID, e.Source, e.Text, blobs[i]); err != nil {
			return fmt.Errorf("saving entry %q: %w", e.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

// Load opens the index database at path read-only and rebuilds the index.
func (s *IndexStore) Load(ctx context.Context, path string) (driven.VectorIndex, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Opening a missing file would create it.
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no index at %s", domain.ErrNotFound, path)
	} else if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=query_only(1)")
	if err != nil {
		return nil, corrupt(path, "opening database: %v", err)
	}
	defer db.Close()

	var check string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&check); err != nil {
		return nil, corrupt(path, "integrity check: %v", err)
	}
	if check != "ok" {
		return nil, corrupt(path, "integrity check: %s", check)
	}

	var (
		meta            domain.IndexMeta
		metric, sources string
		createdAt       string
		stored          int64
	)
	err = db.QueryRowContext(ctx, `
		SELECT model, dimensions, metric, chunk_size, sources, created_at, checksum FROM index_meta WHERE id = 1
	`).Scan(&meta.Model, &meta.Dimensions, &metric, &meta.ChunkSize, &sources, &createdAt, &stored)
	if err != nil {
		return nil, corrupt(path, "reading metadata: %v", err)
	}
	sum := newChecksum()
	sum.meta(meta.Model, meta.Dimensions, metric, meta.ChunkSize, sources, createdAt)
	meta.Metric = domain.DistanceMetric(metric)
	if err := json.Unmarshal([]byte(sources), &meta.Sources); err != nil {
		return nil, corrupt(path, "decoding sources: %v", err)
	}
	if meta.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, corrupt(path, "%v", err)
	}

	index, err := s.newIndex(meta)
	if err != nil {
		return nil, corrupt(path, "invalid metadata: %v", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT position, chunk_id, source, text, vector FROM index_entries ORDER BY position
	`)
	if err != nil {
		return nil, corrupt(path, "reading entries: %v", err)
	}
	defer rows.Close()

	var entries []domain.IndexEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			e        domain.IndexEntry
			position int
			blob     []byte
		)
		if err := rows.Scan(&position, &e.ChunkID, &e.Source, &e.Text, &blob); err != nil {
			return nil, corrupt(path, "scanning entry: %v", err)
		}
		sum.entry(position, e.ChunkID, e.Source, e.Text, blob)
		if e.Vector, err = decodeVector(blob, meta.Dimensions); err != nil {
			return nil, corrupt(path, "entry %q: %v", e.ChunkID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, corrupt(path, "iterating entries: %v", err)
	}
	if got := int64(sum.Sum32()); got != stored {
		return nil, corrupt(path, "checksum %08x, want %08x", got, stored)
	}

	if err := index.Add(ctx, entries...); err != nil {
		return nil, corrupt(path, "%v", err)
	}

	logger.Debug("sqlite: loaded %d entries from %s", index.Len(), path)
	return index, nil
}

// checksum is a CRC32 over the metadata and every entry in position order.
type checksum struct {
	hash.Hash32
}

func newChecksum() checksum {
	return checksum{crc32.NewIEEE()}
}

func (c checksum) meta(model string, dims int, metric string, chunkSize int, sources, createdAt string) {
	c.str(model)
	c.num(dims)
	c.str(metric)
	c.num(chunkSize)
	c.str(sources)
	c.str(createdAt)
}

func (c checksum) entry(position int, chunkID, source, text string, vector []byte) {
	c.num(position)
	c.str(chunkID)
	c.str(source)
	c.str(text)
	c.num(len(vector))
	_, _ = c.Write(vector)
}

// str writes s length-prefixed.
func (c checksum) str(s string) {
	c.num(len(s))
	_, _ = c.Write([]byte(s))
}

func (c checksum) num(n int) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n))
	_, _ = c.Write(buf[:])
}

// encodeVector packs a vector as little-endian float32 values.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(blob []byte, dims int) ([]float32, error) {
	if len(blob) != 4*dims {
		return nil, fmt.Errorf("vector blob is %d bytes, want %d", len(blob), 4*dims)
	}
	v := make([]float32, dims)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return v, nil
}

func corrupt(path, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", domain.ErrIndexCorrupt, path, fmt.Sprintf(format, args...))
}

package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"evodrone/internal/dna"
	"evodrone/internal/nn"
)

// ErrShortRecord is returned when an archive ends inside the requested record.
var ErrShortRecord = errors.New("storage: short genome record")

// RecordLength is the byte length of one archived genome for arch.
func RecordLength(arch []int) int {
	return nn.ParameterCount(arch) * dna.GeneSize
}

// RecordCount returns how many whole records the archive at path holds.
func RecordCount(path string, recordLength int) (int, error) {
	if recordLength <= 0 {
		return 0, fmt.Errorf("storage: record length must be positive, got %d", recordLength)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return int(info.Size() / int64(recordLength)), nil
}

// ReadRecord reads record index of the archive. With fromEnd the index counts back
// from the last record, so 0 is the most recent one.
func ReadRecord(path string, recordLength, index int, fromEnd bool) (*dna.Genome, error) {
	if recordLength <= 0 {
		return nil, fmt.Errorf("storage: record length must be positive, got %d", recordLength)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if fromEnd {
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		index = int(info.Size()/int64(recordLength)) - 1 - index
	}
	if index < 0 {
		return nil, fmt.Errorf("%w: record %d out of range", ErrShortRecord, index)
	}

	buf := make([]byte, recordLength)
	if _, err := f.ReadAt(buf, int64(index)*int64(recordLength)); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: record %d of %s", ErrShortRecord, index, path)
		}
		return nil, err
	}
	return dna.FromBytes(buf), nil
}

// LoadRecord is ReadRecord that never fails: errors are logged and a zero-filled
// genome of recordLength bytes is returned.
func LoadRecord(path string, recordLength, index int, fromEnd bool, logger *slog.Logger) *dna.Genome {
	g, err := ReadRecord(path, recordLength, index, fromEnd)
	if err == nil {
		return g
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("genome record unavailable, using zero genome",
		"path", path, "index", index, "from_end", fromEnd, "err", err)
	return dna.FromBytes(make([]byte, max(recordLength, 0)))
}

// ReadLatest returns up to limit records, most recent first.
func ReadLatest(path string, recordLength, limit int) ([]*dna.Genome, error) {
	count, err := RecordCount(path, recordLength)
	if err != nil {
		return nil, err
	}
	n := min(count, limit)
	genomes := make([]*dna.Genome, 0, n)
	for i := 0; i < n; i++ {
		g, err := ReadRecord(path, recordLength, i, true)
		if err != nil {
			return genomes, err
		}
		genomes = append(genomes, g)
	}
	return genomes, nil
}

// NextFreePath returns base.bin, or base_1.bin, base_2.bin and so on, whichever is the
// first that does not exist yet.
func NextFreePath(base string) string {
	path := base + ".bin"
	for i := 1; ; i++ {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return path
		}
		path = fmt.Sprintf("%s_%d.bin", base, i)
	}
}

// Archive appends fixed-length genome records to a fresh file.
type Archive struct {
	path         string
	recordLength int
	count        int
	f            *os.File
}

// CreateArchive opens a new archive at NextFreePath(base).
func CreateArchive(base string, recordLength int) (*Archive, error) {
	if recordLength <= 0 {
		return nil, fmt.Errorf("storage: record length must be positive, got %d", recordLength)
	}
	if err := os.MkdirAll(filepath.Dir(base), 0755); err != nil {
		return nil, err
	}
	path := NextFreePath(base)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	return &Archive{path: path, recordLength: recordLength, f: f}, nil
}

// Path returns the file the archive writes to.
func (a *Archive) Path() string { return a.path }

// Count returns the number of records appended so far.
func (a *Archive) Count() int { return a.count }

// Append writes g as the next record.
func (a *Archive) Append(g *dna.Genome) error {
	if g.ByteLength() != a.recordLength {
		return fmt.Errorf("storage: genome has %d bytes, archive records are %d", g.ByteLength(), a.recordLength)
	}
	if _, err := a.f.Write(g.Bytes()); err != nil {
		return err
	}
	a.count++
	return nil
}

// Sync flushes written records to disk.
func (a *Archive) Sync() error { return a.f.Sync() }

func (a *Archive) Close() error { return a.f.Close() }

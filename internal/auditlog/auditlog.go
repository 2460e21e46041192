package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/wealthtrack-dev/wealthtrack/internal/id"
)

// Entry is one row in the import log: the durable record of what a single
// import attempt did to the ledger.
type Entry struct {
	Timestamp  time.Time
	BatchID    string
	File       string
	Profile    string
	Strategy   string
	Accepted   int
	Rejected   int
	CommitHash string
}

// Header is the CSV header for import-log.csv.
const Header = "timestamp,batch_id,file,profile,strategy,accepted,rejected,commit_hash"

const (
	numFields  = 8
	logDir     = "logs"
	logFile    = "logs/import-log.csv"
	lockFile   = "logs/import-log.csv.lock"
	colTime    = 0
	colBatch   = 1
	colFile    = 2
	colProfile = 3
	colStrat   = 4
	colAccept  = 5
	colReject  = 6
	colCommit  = 7
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTime] = e.Timestamp.Format(time.RFC3339)
	row[colBatch] = e.BatchID
	row[colFile] = e.File
	row[colProfile] = e.Profile
	row[colStrat] = e.Strategy
	row[colAccept] = strconv.Itoa(e.Accepted)
	row[colReject] = strconv.Itoa(e.Rejected)
	row[colCommit] = e.CommitHash
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTime])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTime], err)
	}

	accepted, err := strconv.Atoi(record[colAccept])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing accepted %q: %w", record[colAccept], err)
	}

	rejected, err := strconv.Atoi(record[colReject])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing rejected %q: %w", record[colReject], err)
	}

	return Entry{
		Timestamp:  ts,
		BatchID:    record[colBatch],
		File:       record[colFile],
		Profile:    record[colProfile],
		Strategy:   record[colStrat],
		Accepted:   accepted,
		Rejected:   rejected,
		CommitHash: record[colCommit],
	}, nil
}

// Append writes entries to <dataDir>/logs/import-log.csv, creating the file
// and header if needed.
func Append(dataDir string, entries []Entry) error {
	dir := filepath.Join(dataDir, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(dataDir, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Record allocates the entry's batch ID and appends it in one critical
// section under an exclusive lock, so two near-simultaneous imports cannot
// mint the same ID. The entry is returned with its BatchID filled in.
func Record(dataDir string, e Entry, now time.Time) (Entry, error) {
	if err := os.MkdirAll(filepath.Join(dataDir, logDir), 0o755); err != nil {
		return Entry{}, fmt.Errorf("creating logs dir: %w", err)
	}

	lock := flock.New(filepath.Join(dataDir, lockFile))
	if err := lock.Lock(); err != nil {
		return Entry{}, fmt.Errorf("locking import log: %w", err)
	}
	defer lock.Unlock() //nolint:errcheck // unlock failure leaves a stale lock file only

	entries, err := Read(dataDir)
	if err != nil {
		return Entry{}, err
	}
	e.BatchID = NextBatchID(entries, now)

	if err := Append(dataDir, []Entry{e}); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// NextBatchID returns the next sequential batch ID for now's month, given
// the entries already logged.
func NextBatchID(entries []Entry, now time.Time) string {
	seq := 1
	for _, e := range entries {
		y, m, _, err := id.ParseBatchID(e.BatchID)
		if err != nil {
			continue
		}
		if y == now.Year() && time.Month(m) == now.Month() {
			seq++
		}
	}
	return id.FormatBatchID(now.Year(), int(now.Month()), seq)
}

// Read returns all entries from <dataDir>/logs/import-log.csv. A missing
// file reads as no entries.
func Read(dataDir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dataDir, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading import log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

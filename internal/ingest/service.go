package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wealthtrack-dev/wealthtrack/internal/model"
	"github.com/wealthtrack-dev/wealthtrack/internal/normalize"
	"github.com/wealthtrack-dev/wealthtrack/internal/schema"
)

const (
	// DefaultMaxRows caps how many data rows one import will process.
	DefaultMaxRows = 10000
	// DefaultMaxFileBytes caps how much of an import file will be read.
	DefaultMaxFileBytes = 10 << 20

	// sampleRows is how many leading rows the detector sees.
	sampleRows = 5
)

// Options tunes one import run.
type Options struct {
	// Source overrides the broker label stamped on imported positions.
	// Empty means use the matched profile's label.
	Source string
	// Policy is passed through to the normalizer as given; a zero ratio
	// disables the per-share reinterpretation.
	Policy normalize.Policy
	// MaxRows and MaxFileBytes default to the package constants when zero.
	MaxRows      int
	MaxFileBytes int64
}

// Result is everything one import attempt produced. RowErrors always holds
// the complete list, so partial success is visible to the caller: no row is
// dropped invisibly.
type Result struct {
	Mapping   schema.Mapping
	Profile   string
	Positions []model.Position
	RowErrors []normalize.RowError
	Rows      int // data rows read from the file
}

// Rejected counts row errors that rejected their row (warnings excluded).
func (r *Result) Rejected() int {
	n := 0
	for _, e := range r.RowErrors {
		if !e.Warning {
			n++
		}
	}
	return n
}

// Service runs the detect-normalize pipeline over broker export files.
type Service struct {
	profiles *Registry
	now      func() time.Time
}

// NewService creates a Service with the built-in broker profiles.
func NewService() *Service {
	return &Service{profiles: DefaultRegistry(), now: time.Now}
}

// ImportFile imports one CSV file from disk.
func (s *Service) ImportFile(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()
	return s.ImportReader(f, opts)
}

// ImportReader runs the pipeline: read the header, match a broker profile,
// detect the column mapping, normalize every row. Detection failure is fatal
// (returned as a *schema.Error); row failures are collected in the Result.
func (s *Service) ImportReader(r io.Reader, opts Options) (*Result, error) {
	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	maxBytes := opts.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}

	// The extra byte tells a truncated read from an oversized file apart
	// from a file that fits exactly.
	limited := &countingReader{r: io.LimitReader(r, maxBytes+1)}
	cr := csv.NewReader(limited)
	cr.FieldsPerRecord = -1 // broker exports are ragged; short rows read as blanks

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("import file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var rows []model.RawRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(rows)+2, err)
		}
		if len(rows) >= maxRows {
			return nil, fmt.Errorf("import exceeds %d rows", maxRows)
		}
		rows = append(rows, model.RawRow(rec))
	}
	if limited.n > maxBytes {
		return nil, fmt.Errorf("import exceeds %d bytes", maxBytes)
	}

	samples := rows
	if len(samples) > sampleRows {
		samples = samples[:sampleRows]
	}

	mapping, err := schema.Detect(header, samples)
	if err != nil {
		return nil, err
	}

	profile := s.profiles.Match(header)

	positions, rowErrs := normalize.Normalize(rows, mapping, opts.Policy)

	source := opts.Source
	if source == "" {
		source = profile.Label
	}
	added := s.now()
	for i := range positions {
		positions[i].Source = source
		positions[i].Added = added
	}

	return &Result{
		Mapping:   mapping,
		Profile:   profile.Name,
		Positions: positions,
		RowErrors: rowErrs,
		Rows:      len(rows),
	}, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/efreitasn/papertrader/internal/domain"
)

var (
	ErrNoRows        = errors.New("no bars loaded")
	ErrMissingColumn = errors.New("missing column")
	ErrNotFinite     = errors.New("not a finite number")
)

var requiredColumns = []string{"ts", "open", "high", "low", "close"}

// LoadCSV reads bars from the CSV file at path.
func LoadCSV(path string) ([]domain.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars file: %w", err)
	}
	defer f.Close()

	bars, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// ReadCSV parses bars from r. The first row is a header naming the columns
// ts, open, high, low, close and optionally volume, in any order. A missing
// or empty volume reads as zero.
func ReadCSV(r io.Reader) ([]domain.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	var bars []domain.Bar
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var values [5]float64
		for i, name := range requiredColumns {
			v, err := parseField(rec, cols[name])
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, name, err)
			}
			values[i] = v
		}

		var volume float64
		if idx, ok := cols["volume"]; ok && idx < len(rec) && strings.TrimSpace(rec[idx]) != "" {
			volume, err = parseField(rec, idx)
			if err != nil {
				return nil, fmt.Errorf("line %d: volume: %w", line, err)
			}
		}

		bars = append(bars, domain.Bar{
			TS:     values[0],
			Open:   values[1],
			High:   values[2],
			Low:    values[3],
			Close:  values[4],
			Volume: volume,
		})
	}

	if len(bars) == 0 {
		return nil, ErrNoRows
	}
	return bars, nil
}

func parseField(rec []string, idx int) (float64, error) {
	if idx >= len(rec) {
		return 0, errors.New("field missing")
	}
	v := strings.TrimSpace(rec[idx])
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotFinite, v)
	}
	return f, nil
}

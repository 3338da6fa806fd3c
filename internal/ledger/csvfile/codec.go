package csvfile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"expenses/internal/core"
)

// Header is the fixed column schema of the ledger file.
var Header = []string{"Date", "Category", "Description", "Amount"}

// rowError carries the line of a failed row up to the store, which owns the path.
type rowError struct {
	line int
	err  error
}

func (e *rowError) Error() string { return fmt.Sprintf("line %d: %v", e.line, e.err) }
func (e *rowError) Unwrap() error { return e.err }

func decode(r io.Reader, loc *time.Location) ([]core.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, &rowError{line: 1, err: fmt.Errorf("%w: read header: %w", core.ErrSchemaMismatch, err)}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !slices.Equal(header, Header) {
		return nil, &rowError{line: 1, err: fmt.Errorf("%w: header %v, want %v", core.ErrSchemaMismatch, header, Header)}
	}

	cr.FieldsPerRecord = len(Header)
	var out []core.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, &rowError{line: line, err: fmt.Errorf("%w: %w", core.ErrCorruptRow, err)}
		}
		line, _ := cr.FieldPos(0)
		rec, err := parseRow(row, loc)
		if err != nil {
			return nil, &rowError{line: line, err: fmt.Errorf("%w: %w", core.ErrCorruptRow, err)}
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseRow(row []string, loc *time.Location) (core.Record, error) {
	date, err := core.ParseTimestamp(row[0], loc)
	if err != nil {
		return core.Record{}, err
	}
	amount, err := core.ParseAmount(row[3])
	if err != nil {
		return core.Record{}, err
	}
	return core.Record{
		Date:        date,
		Category:    row[1],
		Description: row[2],
		Amount:      amount,
	}, nil
}

func encode(records []core.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := w.Write([]string{r.Timestamp(), r.Category, r.Description, r.Amount.String()}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Package transform reshapes raw lead-report CSV attachments into the
// canonical seven-column output schema.
package transform

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Columns is the canonical output schema, in order.
//
//nolint:gochecknoglobals // Fixed schema shared by transformer and commit strategies
var Columns = []string{
	"LeadCreationDate",
	"InquiryDate",
	"CommunityName",
	"Classification",
	"TotalLeads",
	"SubSourceName",
	"SourceName",
}

// Record is one lead row in canonical form.
type Record struct {
	LeadCreationDate string
	InquiryDate      string
	CommunityName    string
	Classification   string
	TotalLeads       int
	SubSourceName    string
	SourceName       string
}

// Row returns the record as a string slice ordered per Columns.
func (r Record) Row() []string {
	return []string{
		r.LeadCreationDate,
		r.InquiryDate,
		r.CommunityName,
		r.Classification,
		strconv.Itoa(r.TotalLeads),
		r.SubSourceName,
		r.SourceName,
	}
}

// FormatError indicates a malformed attachment. It isolates the failure to a
// single message; callers record it and continue with the batch.
type FormatError struct {
	Reason string
	Header []string
}

func (e *FormatError) Error() string {
	if len(e.Header) > 0 {
		return fmt.Sprintf("malformed attachment: %s (header: %s)", e.Reason, strings.Join(e.Header, ","))
	}

	return fmt.Sprintf("malformed attachment: %s", e.Reason)
}

// Transformer converts raw CSV bytes into canonical records. It holds no
// state between calls; the same bytes always yield the same records.
type Transformer struct {
	log     logrus.FieldLogger
	maxRows int
}

// NewTransformer creates a transformer that refuses to emit more than
// maxRows records per attachment.
func NewTransformer(log logrus.FieldLogger, maxRows int) *Transformer {
	return &Transformer{
		log:     log.WithField("component", "transformer"),
		maxRows: maxRows,
	}
}

// Transform parses the attachment and maps each data row to a Record.
// A header row that does not match the expected input schema yields a
// *FormatError. Rows past the configured cap are truncated with a warning,
// never an error.
func (t *Transformer) Transform(raw []byte) ([]Record, error) {
	// The upstream report ships with bare carriage returns inside some
	// fields; strip them before parsing.
	cleaned := strings.ReplaceAll(string(raw), "\r", "")

	reader := csv.NewReader(strings.NewReader(cleaned))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("csv parse failed: %v", err)}
	}

	if len(rows) == 0 {
		return nil, &FormatError{Reason: "attachment is empty"}
	}

	header := rows[0]
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows)-1)

	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}

		if len(records) >= t.maxRows {
			t.log.WithFields(logrus.Fields{
				"max_rows":   t.maxRows,
				"total_rows": len(rows) - 1,
			}).Warn("Row cap reached, truncating attachment")

			break
		}

		records = append(records, t.mapRow(row))
	}

	t.log.WithField("records", len(records)).Debug("Transformed attachment")

	return records, nil
}

// mapRow maps one raw row to a Record, padding short rows and defaulting
// an unparseable TotalLeads to zero.
func (t *Transformer) mapRow(row []string) Record {
	fields := make([]string, len(Columns))
	for i := range fields {
		if i < len(row) {
			fields[i] = strings.TrimSpace(row[i])
		}
	}

	return Record{
		LeadCreationDate: fields[0],
		InquiryDate:      fields[1],
		CommunityName:    fields[2],
		Classification:   fields[3],
		TotalLeads:       t.parseTotalLeads(fields[4]),
		SubSourceName:    fields[5],
		SourceName:       fields[6],
	}
}

// parseTotalLeads parses the numeric column, defaulting to zero on blank or
// unparseable values. Never fatal.
func (t *Transformer) parseTotalLeads(value string) int {
	if value == "" {
		return 0
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		t.log.WithField("value", value).Warn("Unparseable TotalLeads value, defaulting to 0")

		return 0
	}

	return n
}

// EncodeCSV renders records back to CSV bytes. Create-mode commits include
// the header row; append-mode output never does.
func (t *Transformer) EncodeCSV(records []Record, withHeader bool) ([]byte, error) {
	var buf bytes.Buffer

	writer := csv.NewWriter(&buf)

	if withHeader {
		if err := writer.Write(Columns); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i := range records {
		if err := writer.Write(records[i].Row()); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	writer.Flush()

	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv output: %w", err)
	}

	return buf.Bytes(), nil
}

// validateHeader checks the attachment's header row against the expected
// input schema. Comparison is case-insensitive and ignores surrounding
// whitespace; extra trailing columns are rejected.
func validateHeader(header []string) error {
	if len(header) != len(Columns) {
		return &FormatError{
			Reason: fmt.Sprintf("expected %d columns, got %d", len(Columns), len(header)),
			Header: header,
		}
	}

	for i, want := range Columns {
		got := strings.TrimSpace(header[i])
		if !strings.EqualFold(got, want) {
			return &FormatError{
				Reason: fmt.Sprintf("unexpected column %q at position %d (want %q)", got, i, want),
				Header: header,
			}
		}
	}

	return nil
}

func isBlankRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}

	return true
}

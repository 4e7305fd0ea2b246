package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fintrackable/fintrackable-backend/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

// Record is one normalized transaction candidate produced from a CSV row.
type Record struct {
	Date          time.Time
	Amount        decimal.Decimal
	Counterparty  string
	Description   string
	AccountNumber string
}

// Report describes the outcome of normalizing one upload.
type Report struct {
	RowsTotal  int
	RowsParsed int
	Skipped    []domain.SkippedRow
}

// Header names recognized in uploads, compared case-insensitively.
const (
	headerDate          = "datum"
	headerAmount        = "bedrag"
	headerCounterparty  = "naam tegenpartij"
	headerDescription   = "omschrijving"
	headerAccountNumber = "rekeningnummer"
)

// descriptionPrefixes are redundant payment-method prefixes banks prepend to
// descriptions; they carry no information about the counterparty.
var descriptionPrefixes = regexp.MustCompile(`(?i)^(betaling via bancontact|betaling via debit mastercard|overschrijving naar|overschrijving van|europese overschrijving|sepa domiciliëring|sepa overschrijving|domiciliëring|terugbetaling|storting|opname)\s*-?\s*`)

// Normalizer parses raw CSV uploads into canonical records using a locale
// profile. Malformed rows are skipped and reported, not fatal.
type Normalizer struct {
	profile Profile
}

// NewNormalizer creates a Normalizer for the given locale profile.
func NewNormalizer(profile Profile) *Normalizer {
	return &Normalizer{profile: profile}
}

// Normalize decodes, parses and cleans the upload. It returns the parsed
// records in file order together with a row-level report. The error is
// non-nil only for whole-file failures (undecodable bytes, missing header
// columns).
func (n *Normalizer) Normalize(raw []byte) ([]Record, *Report, error) {
	content, err := decode(raw)
	if err != nil {
		return nil, nil, err
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = n.profile.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, domain.ErrEmptyImport
	}
	columns, err := mapColumns(header)
	if err != nil {
		return nil, nil, err
	}

	report := &Report{}
	var records []Record
	index := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		index++
		if err != nil {
			report.RowsTotal++
			report.Skipped = append(report.Skipped, domain.SkippedRow{Index: index, Reason: "unreadable row"})
			continue
		}
		if blankRow(row) {
			continue
		}
		report.RowsTotal++

		record, rowErr := n.parseRow(index, row, columns)
		if rowErr != nil {
			var malformed *domain.MalformedRowError
			if errors.As(rowErr, &malformed) {
				report.Skipped = append(report.Skipped, domain.SkippedRow{Index: malformed.Index, Reason: malformed.Reason})
				continue
			}
			return nil, nil, rowErr
		}
		records = append(records, record)
		report.RowsParsed++
	}

	return records, report, nil
}

func (n *Normalizer) parseRow(index int, row []string, columns columnIndex) (Record, error) {
	raw := strings.Join(row, string(n.profile.Delimiter))

	date, err := n.profile.ParseDate(field(row, columns.date))
	if err != nil {
		return Record{}, &domain.MalformedRowError{Index: index, Raw: raw, Reason: err.Error()}
	}
	amount, err := n.profile.ParseAmount(field(row, columns.amount))
	if err != nil {
		return Record{}, &domain.MalformedRowError{Index: index, Raw: raw, Reason: err.Error()}
	}

	counterparty := cleanText(field(row, columns.counterparty))
	if counterparty == "" {
		counterparty = domain.UnknownFieldMarker
	}
	description := cleanDescription(field(row, columns.description))
	if description == "" {
		description = domain.UnknownFieldMarker
	}

	return Record{
		Date:          date,
		Amount:        amount,
		Counterparty:  counterparty,
		Description:   description,
		AccountNumber: cleanText(field(row, columns.accountNumber)),
	}, nil
}

type columnIndex struct {
	date          int
	amount        int
	counterparty  int
	description   int
	accountNumber int
}

func mapColumns(header []string) (columnIndex, error) {
	columns := columnIndex{date: -1, amount: -1, counterparty: -1, description: -1, accountNumber: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case headerDate:
			columns.date = i
		case headerAmount:
			columns.amount = i
		case headerCounterparty:
			columns.counterparty = i
		case headerDescription:
			columns.description = i
		case headerAccountNumber:
			columns.accountNumber = i
		}
	}
	if columns.date < 0 || columns.amount < 0 {
		return columns, domain.ErrMissingColumns
	}
	return columns, nil
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func blankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// cleanText collapses internal whitespace and trims the field.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanDescription additionally strips redundant payment-method prefixes.
func cleanDescription(s string) string {
	return cleanText(descriptionPrefixes.ReplaceAllString(strings.TrimSpace(s), ""))
}

// decode tries the candidate encodings in priority order: UTF-8 first, then
// Windows-1252. Bytes that survive neither produce an EncodingError.
func decode(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(raw) {
		return string(raw), nil
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err == nil && utf8.Valid(decoded) && !bytes.ContainsRune(decoded, utf8.RuneError) {
		return string(decoded), nil
	}
	return "", &domain.EncodingError{Tried: []string{"utf-8", "windows-1252"}}
}

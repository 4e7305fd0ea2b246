package importer

import (
	"errors"
	"testing"

	"github.com/fintrackable/fintrackable-backend/internal/domain"
)

const kbcHeader = "Datum;Bedrag;Naam tegenpartij;Omschrijving\n"

func TestNormalize_ParsesRows(t *testing.T) {
	n := NewNormalizer(KBCProfile())

	csv := kbcHeader +
		"15/01/2024;-12,50;Delhaize;Groceries\n" +
		"25/01/2024;2500,00;ACME Corp;Salary January\n"

	records, report, err := n.Normalize([]byte(csv))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.RowsTotal != 2 || report.RowsParsed != 2 {
		t.Errorf("Expected 2/2 rows, got %d/%d", report.RowsParsed, report.RowsTotal)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Counterparty != "Delhaize" {
		t.Errorf("Expected counterparty 'Delhaize', got %s", records[0].Counterparty)
	}
	if records[0].Amount.String() != "-12.5" {
		t.Errorf("Expected amount '-12.5', got %s", records[0].Amount.String())
	}
	if records[1].Date.Format("2006-01-02") != "2024-01-25" {
		t.Errorf("Expected date '2024-01-25', got %s", records[1].Date.Format("2006-01-02"))
	}
}

func TestNormalize_SkipsMalformedRows(t *testing.T) {
	n := NewNormalizer(KBCProfile())

	csv := kbcHeader +
		"15/01/2024;-12,50;Delhaize;Groceries\n" +
		"not a date;-5,00;Shop;Stuff\n" +
		"16/01/2024;not an amount;Shop;Stuff\n"

	records, report, err := n.Normalize([]byte(csv))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.RowsTotal != 3 {
		t.Errorf("Expected 3 total rows, got %d", report.RowsTotal)
	}
	if report.RowsParsed != 1 {
		t.Errorf("Expected 1 parsed row, got %d", report.RowsParsed)
	}
	if len(report.Skipped) != 2 {
		t.Fatalf("Expected 2 skipped rows, got %d", len(report.Skipped))
	}
	if report.Skipped[0].Index != 2 || report.Skipped[1].Index != 3 {
		t.Errorf("Expected skipped indexes [2, 3], got [%d, %d]", report.Skipped[0].Index, report.Skipped[1].Index)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record, got %d", len(records))
	}
}

func TestNormalize_BlankRowsIgnored(t *testing.T) {
	n := NewNormalizer(KBCProfile())

	csv := kbcHeader +
		"15/01/2024;-12,50;Delhaize;Groceries\n" +
		";;;\n" +
		"\n"

	_, report, err := n.Normalize([]byte(csv))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.RowsTotal != 1 {
		t.Errorf("Expected blank rows to be ignored, got %d total", report.RowsTotal)
	}
}

func TestNormalize_MissingFieldsGetMarker(t *testing.T) {
	n := NewNormalizer(KBCProfile())

	csv := kbcHeader + "15/01/2024;-12,50;;\n"

	records, _, err := n.Normalize([]byte(csv))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].Counterparty != domain.UnknownFieldMarker {
		t.Errorf("Expected counterparty %q, got %q", domain.UnknownFieldMarker, records[0].Counterparty)
	}
	if records[0].Description != domain.UnknownFieldMarker {
		t.Errorf("Expected description %q, got %q", domain.UnknownFieldMarker, records[0].Description)
	}
}

func TestNormalize_StripsDescriptionPrefixes(t *testing.T) {
	n := NewNormalizer(KBCProfile())

	csv := kbcHeader +
		"15/01/2024;-12,50;Delhaize;Betaling via Bancontact - Delhaize Gent\n" +
		"16/01/2024;-30,00;NMBS;EUROPESE OVERSCHRIJVING treinticket\n"

	records, _, err := n.Normalize([]byte(csv))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if records[0].Description != "Delhaize Gent" {
		t.Errorf("Expected 'Delhaize Gent', got %q", records[0].Description)
	}
	if records[1].Description != "treinticket" {
		t.Errorf("Expected 'treinticket', got %q", records[1].Description)
	}
}

func TestNormalize_CollapsesWhitespace(t *testing.T) {
	n := NewNormalizer(KBCProfile())

	csv := kbcHeader + "15/01/2024;-12,50;  Delhaize   Gent ;  two   spaces \n"

	records, _, err := n.Normalize([]byte(csv))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if records[0].Counterparty != "Delhaize Gent" {
		t.Errorf("Expected 'Delhaize Gent', got %q", records[0].Counterparty)
	}
	if records[0].Description != "two spaces" {
		t.Errorf("Expected 'two spaces', got %q", records[0].Description)
	}
}

func TestNormalize_UTF8BOM(t *testing.T) {
	n := NewNormalizer(KBCProfile())

	csv := append([]byte{0xEF, 0xBB, 0xBF}, []byte(kbcHeader+"15/01/2024;-12,50;Delhaize;Groceries\n")...)

	records, _, err := n.Normalize(csv)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record, got %d", len(records))
	}
}

func TestNormalize_Windows1252Fallback(t *testing.T) {
	n := NewNormalizer(KBCProfile())

	// "Caf\xe9" is "Café" in Windows-1252 but invalid UTF-8
	csv := []byte(kbcHeader + "15/01/2024;-12,50;Caf\xe9;Drinks\n")

	records, _, err := n.Normalize(csv)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].Counterparty != "Café" {
		t.Errorf("Expected 'Café', got %q", records[0].Counterparty)
	}
}

func TestNormalize_UndecodableBytes(t *testing.T) {
	n := NewNormalizer(KBCProfile())

	// 0x81 is undefined in Windows-1252
	csv := []byte(kbcHeader + "15/01/2024;-12,50;Shop\x81;Stuff\n")

	_, _, err := n.Normalize(csv)
	var encErr *domain.EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("Expected EncodingError, got %v", err)
	}
	if len(encErr.Tried) != 2 {
		t.Errorf("Expected 2 tried encodings, got %v", encErr.Tried)
	}
}

func TestNormalize_MissingColumns(t *testing.T) {
	n := NewNormalizer(KBCProfile())

	csv := "Datum;Naam tegenpartij;Omschrijving\n15/01/2024;Delhaize;Groceries\n"

	_, _, err := n.Normalize([]byte(csv))
	if !errors.Is(err, domain.ErrMissingColumns) {
		t.Fatalf("Expected ErrMissingColumns, got %v", err)
	}
}

func TestNormalize_EmptyFile(t *testing.T) {
	n := NewNormalizer(KBCProfile())

	_, _, err := n.Normalize([]byte(""))
	if !errors.Is(err, domain.ErrEmptyImport) {
		t.Fatalf("Expected ErrEmptyImport, got %v", err)
	}
}

func TestNormalize_CaseInsensitiveHeader(t *testing.T) {
	n := NewNormalizer(KBCProfile())

	csv := "DATUM;BEDRAG;NAAM TEGENPARTIJ;OMSCHRIJVING;Rekeningnummer\n" +
		"15/01/2024;-12,50;Delhaize;Groceries;BE68539007547034\n"

	records, _, err := n.Normalize([]byte(csv))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].AccountNumber != "BE68539007547034" {
		t.Errorf("Expected account number, got %q", records[0].AccountNumber)
	}
}

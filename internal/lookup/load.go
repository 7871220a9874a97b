package lookup

import (
	"bytes"
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

//go:embed data
var defaultData embed.FS

// File names recognized by LoadDir. Rename dictionaries may be either .xlsx
// or .csv; the spreadsheet wins when both exist.
const (
	PrefixesFile     = "prefixes.txt"
	SuffixesFile     = "suffixes.txt"
	UncapsFile       = "uncaps.txt"
	CapsFile         = "caps.txt"
	AddressesFile    = "addresses.txt"
	KeepFieldsFile   = "keep_fields.txt"
	JournalKeyStem   = "journal_key"
	PublisherKeyStem = "publisher_key"
	AddressKeyStem   = "address_key"
)

// Column headers expected in a rename dictionary.
const (
	OrigColumn      = "orig"
	CorrectedColumn = "corrected"
)

// ErrMissingColumn is returned when a rename dictionary lacks the orig or
// corrected header.
var ErrMissingColumn = errors.New("rename dictionary missing orig/corrected column")

// Default returns the tables compiled into the binary.
func Default() (*Tables, error) {
	src, err := defaultSource()
	if err != nil {
		return nil, err
	}
	return New(src), nil
}

func defaultSource() (Source, error) {
	var src Source
	lists := []struct {
		name string
		dst  *[]string
	}{
		{PrefixesFile, &src.Prefixes},
		{SuffixesFile, &src.Suffixes},
		{UncapsFile, &src.Uncaps},
		{CapsFile, &src.ForceCaps},
		{AddressesFile, &src.AddressCodes},
		{KeepFieldsFile, &src.KeepFields},
	}
	for _, l := range lists {
		data, err := defaultData.ReadFile("data/" + l.name)
		if err != nil {
			return Source{}, fmt.Errorf("reading embedded %s: %w", l.name, err)
		}
		values, err := ReadList(bytes.NewReader(data))
		if err != nil {
			return Source{}, fmt.Errorf("parsing embedded %s: %w", l.name, err)
		}
		*l.dst = values
	}

	keys := []struct {
		stem string
		dst  *map[string]string
	}{
		{JournalKeyStem, &src.JournalKey},
		{PublisherKeyStem, &src.PublisherKey},
		{AddressKeyStem, &src.AddressKey},
	}
	for _, k := range keys {
		data, err := defaultData.ReadFile("data/" + k.stem + ".csv")
		if err != nil {
			return Source{}, fmt.Errorf("reading embedded %s: %w", k.stem, err)
		}
		m, err := readRenameCSV(bytes.NewReader(data))
		if err != nil {
			return Source{}, fmt.Errorf("parsing embedded %s: %w", k.stem, err)
		}
		*k.dst = m
	}
	return src, nil
}

// LoadDir starts from the embedded defaults and replaces every table for
// which dir holds a file. An empty dir returns the defaults.
func LoadDir(dir string) (*Tables, error) {
	src, err := defaultSource()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return New(src), nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("tables directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("tables directory %s is not a directory", dir)
	}

	lists := map[string]*[]string{
		PrefixesFile:   &src.Prefixes,
		SuffixesFile:   &src.Suffixes,
		UncapsFile:     &src.Uncaps,
		CapsFile:       &src.ForceCaps,
		AddressesFile:  &src.AddressCodes,
		KeepFieldsFile: &src.KeepFields,
	}
	for name, dst := range lists {
		values, ok, err := readListFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if ok {
			*dst = values
		}
	}

	keys := map[string]*map[string]string{
		JournalKeyStem:   &src.JournalKey,
		PublisherKeyStem: &src.PublisherKey,
		AddressKeyStem:   &src.AddressKey,
	}
	for stem, dst := range keys {
		m, ok, err := readRenameKeyFile(dir, stem)
		if err != nil {
			return nil, err
		}
		if ok {
			*dst = m
		}
	}

	return New(src), nil
}

func readListFile(path string) ([]string, bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	values, err := ReadList(f)
	if err != nil {
		return nil, false, fmt.Errorf("parsing %s: %w", path, err)
	}
	return values, true, nil
}

func readRenameKeyFile(dir, stem string) (map[string]string, bool, error) {
	for _, ext := range []string{".xlsx", ".csv"} {
		path := filepath.Join(dir, stem+ext)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, false, fmt.Errorf("checking %s: %w", path, err)
		}
		m, err := ReadRenameKey(path)
		if err != nil {
			return nil, false, err
		}
		return m, true, nil
	}
	return nil, false, nil
}

// ReadList reads a headerless CSV table where every non-empty cell is one
// value. Rows may have different lengths.
func ReadList(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var values []string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for _, cell := range record {
			if cell = strings.TrimSpace(cell); cell != "" {
				values = append(values, cell)
			}
		}
	}
	return values, nil
}

// ReadRenameKey reads a rename dictionary from an .xlsx workbook (first
// sheet) or a .csv file. The first row must name the orig and corrected
// columns; other columns are ignored.
func ReadRenameKey(path string) (map[string]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readRenameXLSX(path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		m, err := readRenameCSV(f)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported rename dictionary format: %s", path)
	}
}

func readRenameXLSX(path string) (map[string]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("no sheets found in %s", path)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from %s: %w", path, err)
	}
	m, err := renameRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func readRenameCSV(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	return renameRows(rows)
}

// renameRows maps the orig column to the corrected column. Rows with either
// cell empty are skipped.
func renameRows(rows [][]string) (map[string]string, error) {
	if len(rows) == 0 {
		return map[string]string{}, nil
	}
	origCol, corrCol := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case OrigColumn:
			origCol = i
		case CorrectedColumn:
			corrCol = i
		}
	}
	if origCol < 0 || corrCol < 0 {
		return nil, ErrMissingColumn
	}

	m := make(map[string]string, len(rows)-1)
	for _, row := range rows[1:] {
		if origCol >= len(row) || corrCol >= len(row) {
			continue
		}
		orig := strings.ToLower(strings.TrimSpace(row[origCol]))
		corrected := strings.TrimSpace(row[corrCol])
		if orig == "" || corrected == "" {
			continue
		}
		m[orig] = corrected
	}
	return m, nil
}

package analysis

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"ideaboard/internal/models"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// sampleSize is how many rows type inference looks at per column.
const sampleSize = 20

type DatasetService struct{}

func NewDatasetService() *DatasetService {
	return &DatasetService{}
}

// Profile reads an uploaded dataset fully into memory and summarizes it. The
// format is chosen by file extension.
func (s *DatasetService) Profile(fileName string, r io.Reader) (*models.DatasetProfile, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	var (
		profile *models.DatasetProfile
		err     error
	)
	switch ext {
	case ".csv":
		profile, err = s.profileCSV(r)
	case ".json":
		profile, err = s.profileJSON(r)
	case ".xlsx":
		return nil, fmt.Errorf("%w: %s (export the sheet as CSV)", ErrUnsupportedFormat, ext)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	profile.FileName = fileName
	return profile, nil
}

func (s *DatasetService) profileCSV(r io.Reader) (*models.DatasetProfile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	headers, rows, err := readCSV(data, ',')
	if err != nil || (len(headers) == 1 && strings.Contains(headers[0], ";")) {
		// Try with semicolon separator
		headers, rows, err = readCSV(data, ';')
		if err != nil {
			return nil, fmt.Errorf("failed to read headers: %v", err)
		}
	}

	profile := newProfile("csv", headers, len(rows))
	for i, name := range headers {
		profile.ColumnTypes[name] = inferColumnType(rows, i)
	}
	profile.Quality = csvQuality(headers, rows)
	summarize(profile)
	return profile, nil
}

func readCSV(data []byte, comma rune) ([]string, [][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1 // Allow variable fields
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, err
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	rows := [][]string{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Skip malformed rows
			continue
		}
		rows = append(rows, record)
	}
	return headers, rows, nil
}

// profileJSON accepts an array of flat objects.
func (s *DatasetService) profileJSON(r io.Reader) (*models.DatasetProfile, error) {
	var records []map[string]interface{}
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("expected a JSON array of objects: %w", err)
	}

	seen := map[string]bool{}
	var columns []string
	for _, rec := range records {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = true
			columns = append(columns, k)
		}
	}

	profile := newProfile("json", columns, len(records))
	for _, col := range columns {
		profile.ColumnTypes[col] = inferValueType(records, col)
	}
	profile.Quality = jsonQuality(columns, records)
	summarize(profile)
	return profile, nil
}

func newProfile(format string, columns []string, rows int) *models.DatasetProfile {
	if columns == nil {
		columns = []string{}
	}
	return &models.DatasetProfile{
		Format:      format,
		NumRows:     rows,
		NumColumns:  len(columns),
		ColumnNames: columns,
		ColumnTypes: make(map[string]string, len(columns)),
	}
}

func summarize(p *models.DatasetProfile) {
	for _, t := range p.ColumnTypes {
		switch t {
		case "int", "float":
			p.HasNumeric = true
		case "date":
			p.HasDates = true
		default:
			p.HasText = true
		}
	}
}

func inferValueType(records []map[string]interface{}, col string) string {
	checked := 0
	isInt, isFloat, isDate := true, true, true
	for _, rec := range records {
		if checked == sampleSize {
			break
		}
		v, ok := rec[col]
		if !ok || v == nil {
			continue
		}
		checked++
		switch val := v.(type) {
		case float64:
			isDate = false
			if val != math.Trunc(val) {
				isInt = false
			}
		case string:
			isInt, isFloat = false, false
			if !isDateString(val) {
				isDate = false
			}
		default:
			isInt, isFloat, isDate = false, false, false
		}
	}
	return pickType(checked, isInt, isFloat, isDate)
}

func inferColumnType(rows [][]string, colIndex int) string {
	checked := 0
	isInt, isFloat, isDate := true, true, true
	for _, row := range rows {
		if checked == sampleSize {
			break
		}
		if colIndex >= len(row) || row[colIndex] == "" {
			continue // Skip empties
		}
		val := row[colIndex]
		checked++

		if _, err := strconv.Atoi(val); err != nil {
			isInt = false
		}
		if _, err := strconv.ParseFloat(val, 64); err != nil {
			isFloat = false
		}
		if !isDateString(val) {
			isDate = false
		}
	}
	return pickType(checked, isInt, isFloat, isDate)
}

func pickType(checked int, isInt, isFloat, isDate bool) string {
	switch {
	case checked == 0:
		return "string" // All nulls or empty
	case isInt:
		return "int"
	case isFloat:
		return "float"
	case isDate:
		return "date"
	}
	return "string"
}

func isDateString(val string) bool {
	formats := []string{
		time.RFC3339,
		"2006-01-02",
		"02/01/2006",
		"01/02/2006",
		"2006/01/02",
	}
	for _, f := range formats {
		if _, err := time.Parse(f, val); err == nil {
			return true
		}
	}
	return false
}

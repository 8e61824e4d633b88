// Package csvsource reads the flat HR attrition CSV that feeds both
// backends. Source column names and values carry incidental whitespace, so
// every header and string field is trimmed before use.
package csvsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/crewlytics/attrition/pkg/hr"
)

// Canonical (trimmed) column names of the source file.
const (
	ColEmployeeNumber          = "EmployeeNumber"
	ColAge                     = "Age"
	ColAttrition               = "Attrition"
	ColGender                  = "Gender"
	ColEducation               = "Education"
	ColEducationField          = "EducationField"
	ColMaritalStatus           = "MaritalStatus"
	ColBusinessTravel          = "BusinessTravel"
	ColDistanceFromHome        = "DistanceFromHome"
	ColJobLevel                = "JobLevel"
	ColJobInvolvement          = "JobInvolvement"
	ColJobSatisfaction         = "JobSatisfaction"
	ColPerformanceRating       = "PerformanceRating"
	ColEnvironmentSatisfaction = "EnvironmentSatisfaction"
	ColWorkLifeBalance         = "WorkLifeBalance"
	ColTotalWorkingYears       = "TotalWorkingYears"
	ColYearsAtCompany          = "YearsAtCompany"
	ColYearsInCurrentRole      = "YearsInCurrentRole"
	ColYearsSinceLastPromotion = "YearsSinceLastPromotion"
	ColYearsWithCurrManager    = "YearsWithCurrManager"
	ColHourlyRate              = "HourlyRate"
	ColMonthlyIncome           = "MonthlyIncome"
	ColMonthlyRate             = "MonthlyRate"
	ColDailyRate               = "DailyRate"
	ColNumCompaniesWorked      = "NumCompaniesWorked"
	ColStockOptionLevel        = "StockOptionLevel"
	ColOverTime                = "OverTime"
	ColOver18                  = "Over18"
	ColPercentSalaryHike       = "PercentSalaryHike"
	ColDepartment              = "Department"
	ColJobRole                 = "JobRole"
)

// requiredColumns must all be present (after header trimming) for a file to
// be loadable at all. A missing column fails the open, not individual rows.
var requiredColumns = []string{
	ColEmployeeNumber,
	ColAge,
	ColAttrition,
	ColGender,
	ColEducation,
	ColEducationField,
	ColMaritalStatus,
	ColBusinessTravel,
	ColDistanceFromHome,
	ColJobLevel,
	ColJobInvolvement,
	ColJobSatisfaction,
	ColPerformanceRating,
	ColEnvironmentSatisfaction,
	ColWorkLifeBalance,
	ColTotalWorkingYears,
	ColYearsAtCompany,
	ColYearsInCurrentRole,
	ColYearsSinceLastPromotion,
	ColYearsWithCurrManager,
	ColHourlyRate,
	ColMonthlyIncome,
	ColMonthlyRate,
	ColDailyRate,
	ColNumCompaniesWorked,
	ColStockOptionLevel,
	ColOverTime,
	ColOver18,
	ColPercentSalaryHike,
	ColDepartment,
	ColJobRole,
}

// File is a fully parsed source file. Rows keep their original 1-based line
// numbers so skipped rows can be reported against the file.
type File struct {
	cols      map[string]int
	rows      []Row
	malformed []hr.ValidationError
}

// Row is one source record.
type Row struct {
	Line   int
	fields []string
	cols   map[string]int
}

// Read parses the CSV at path. Extra columns are ignored; missing required
// columns are an error.
func Read(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source csv: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a source file from r. The first record is the header.
// Malformed records (wrong field count, bad quoting) are per-row failures:
// they are recorded on the File and skipped, never fatal.
func Parse(r io.Reader) (*File, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = false
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("source csv is missing required column %q", name)
		}
	}

	file := &File{cols: cols}
	line := 1
	for {
		record, err := cr.Read()
		line++
		if err == io.EOF {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			file.malformed = append(file.malformed, hr.ValidationError{
				Line:   line,
				Field:  "record",
				Reason: parseErr.Err.Error(),
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record at line %d: %w", line, err)
		}
		if len(record) != len(header) {
			file.malformed = append(file.malformed, hr.ValidationError{
				Line:   line,
				Field:  "record",
				Reason: fmt.Sprintf("expected %d fields, got %d", len(header), len(record)),
			})
			continue
		}
		file.rows = append(file.rows, Row{Line: line, fields: record, cols: cols})
	}
	return file, nil
}

// Rows returns all source rows in file order.
func (f *File) Rows() []Row { return f.rows }

// Len returns the number of data rows.
func (f *File) Len() int { return len(f.rows) }

// Malformed returns the records Parse skipped, in file order, so a load run
// can report them alongside its own per-row skips.
func (f *File) Malformed() []hr.ValidationError { return f.malformed }

// Distinct returns the distinct trimmed values of the named column in
// first-seen order. This is the dedup key both backends derive their
// dimension vocabulary from.
func (f *File) Distinct(col string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range f.rows {
		v := row.Str(col)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Str returns the trimmed value of the named column, or "" when the column
// is absent or the record is short.
func (r Row) Str(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// Int coerces the named column to an integer. Failures are per-row
// validation errors: the caller skips the row, not the run.
func (r Row) Int(col string) (int, error) {
	s := r.Str(col)
	if s == "" {
		return 0, &hr.ValidationError{Line: r.Line, Field: col, Reason: "empty value"}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &hr.ValidationError{Line: r.Line, Field: col, Reason: fmt.Sprintf("not an integer: %q", s)}
	}
	return n, nil
}

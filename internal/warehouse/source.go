package warehouse

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/campusmetrics/unidwh/internal/logging"
)

// RawDimensions holds the seven dimension tables as read from the source
// CSV files, before any cleaning. Identifier columns are parsed eagerly;
// columns covered by a repair rule stay raw strings so the Transformer can
// apply the rule to unparsable values too.
type RawDimensions struct {
	Dates       []RawDate
	Departments []RawDepartment
	Accounts    []RawAccount
	Vendors     []RawVendor
	Courses     []RawCourse
	Students    []RawStudent
	Employees   []RawEmployee
}

// RawDate is a dim_date.csv row. Only the date column matters: every other
// calendar column is re-derived by the Transformer.
type RawDate struct {
	Date string
}

// RawDepartment is a dim_department.csv row.
type RawDepartment struct {
	ID        int
	Name      string
	ManagerID string
	Budget    string
	Location  string
}

// RawAccount is a dim_account.csv row.
type RawAccount struct {
	ID       int
	Code     string
	Name     string
	Type     string
	Category string
}

// RawVendor is a dim_vendor.csv row.
type RawVendor struct {
	ID            int
	Name          string
	Type          string
	ContactPerson string
	Phone         string
	Email         string
}

// RawCourse is a dim_course.csv row.
type RawCourse struct {
	ID          int
	Code        string
	Name        string
	Department  string
	CreditHours string
}

// RawStudent is a dim_student.csv row.
type RawStudent struct {
	ID            int
	FirstName     string
	LastName      string
	Gender        string
	BirthDate     string
	AdmissionYear string
	Program       string
	City          string
	Country       string
	CreatedAt     string
}

// RawEmployee is a dim_employee.csv row.
type RawEmployee struct {
	ID               int
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	HireDate         string
	JobTitle         string
	Salary           string
	DepartmentID     string
	ManagerID        string
	EmploymentType   string
	BenefitsEligible string
}

// ReadDimensions reads the seven dimension CSV files from dir.
// Files are located by their table name (dim_student.csv etc.) and columns
// by header name, so extra columns and column reordering are tolerated.
func ReadDimensions(dir string) (*RawDimensions, error) {
	raw := &RawDimensions{}

	readers := []struct {
		file string
		read func([][]string, colIndex) error
	}{
		{"dim_date.csv", func(rows [][]string, idx colIndex) error {
			for _, r := range rows {
				raw.Dates = append(raw.Dates, RawDate{Date: idx.get(r, "date")})
			}
			return nil
		}},
		{"dim_department.csv", func(rows [][]string, idx colIndex) error {
			for _, r := range rows {
				id, err := idx.getInt(r, "department_id")
				if err != nil {
					return err
				}
				raw.Departments = append(raw.Departments, RawDepartment{
					ID:        id,
					Name:      idx.get(r, "department_name"),
					ManagerID: idx.get(r, "manager_id"),
					Budget:    idx.get(r, "budget"),
					Location:  idx.get(r, "location"),
				})
			}
			return nil
		}},
		{"dim_account.csv", func(rows [][]string, idx colIndex) error {
			for _, r := range rows {
				id, err := idx.getInt(r, "account_id")
				if err != nil {
					return err
				}
				raw.Accounts = append(raw.Accounts, RawAccount{
					ID:       id,
					Code:     idx.get(r, "account_code"),
					Name:     idx.get(r, "account_name"),
					Type:     idx.get(r, "account_type"),
					Category: idx.get(r, "category"),
				})
			}
			return nil
		}},
		{"dim_vendor.csv", func(rows [][]string, idx colIndex) error {
			for _, r := range rows {
				id, err := idx.getInt(r, "vendor_id")
				if err != nil {
					return err
				}
				raw.Vendors = append(raw.Vendors, RawVendor{
					ID:            id,
					Name:          idx.get(r, "vendor_name"),
					Type:          idx.get(r, "vendor_type"),
					ContactPerson: idx.get(r, "contact_person"),
					Phone:         idx.get(r, "phone"),
					Email:         idx.get(r, "email"),
				})
			}
			return nil
		}},
		{"dim_course.csv", func(rows [][]string, idx colIndex) error {
			for _, r := range rows {
				id, err := idx.getInt(r, "course_id")
				if err != nil {
					return err
				}
				raw.Courses = append(raw.Courses, RawCourse{
					ID:          id,
					Code:        idx.get(r, "course_code"),
					Name:        idx.get(r, "course_name"),
					Department:  idx.get(r, "department"),
					CreditHours: idx.get(r, "credit_hours"),
				})
			}
			return nil
		}},
		{"dim_student.csv", func(rows [][]string, idx colIndex) error {
			for _, r := range rows {
				id, err := idx.getInt(r, "student_id")
				if err != nil {
					return err
				}
				raw.Students = append(raw.Students, RawStudent{
					ID:            id,
					FirstName:     idx.get(r, "first_name"),
					LastName:      idx.get(r, "last_name"),
					Gender:        idx.get(r, "gender"),
					BirthDate:     idx.get(r, "birth_date"),
					AdmissionYear: idx.get(r, "admission_year"),
					Program:       idx.get(r, "program"),
					City:          idx.get(r, "city"),
					Country:       idx.get(r, "country"),
					CreatedAt:     idx.get(r, "created_at"),
				})
			}
			return nil
		}},
		{"dim_employee.csv", func(rows [][]string, idx colIndex) error {
			for _, r := range rows {
				id, err := idx.getInt(r, "employee_id")
				if err != nil {
					return err
				}
				raw.Employees = append(raw.Employees, RawEmployee{
					ID:               id,
					FirstName:        idx.get(r, "first_name"),
					LastName:         idx.get(r, "last_name"),
					Email:            idx.get(r, "email"),
					Phone:            idx.get(r, "phone"),
					HireDate:         idx.get(r, "hire_date"),
					JobTitle:         idx.get(r, "job_title"),
					Salary:           idx.get(r, "salary"),
					DepartmentID:     idx.get(r, "department_id"),
					ManagerID:        idx.get(r, "manager_id"),
					EmploymentType:   idx.get(r, "employment_type"),
					BenefitsEligible: idx.get(r, "benefits_eligible"),
				})
			}
			return nil
		}},
	}

	for _, rd := range readers {
		path := filepath.Join(dir, rd.file)
		header, rows, err := readCSVFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", rd.file, err)
		}
		idx := newColIndex(header)
		if err := rd.read(rows, idx); err != nil {
			return nil, fmt.Errorf("invalid data in %s: %w", rd.file, err)
		}
		logging.Debug().
			Str("file", rd.file).
			Int("rows", len(rows)).
			Msg("Read dimension file")
	}

	return raw, nil
}

func readCSVFile(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("file is empty")
	}
	return records[0], records[1:], nil
}

// colIndex maps header names to column positions.
type colIndex map[string]int

func newColIndex(header []string) colIndex {
	idx := make(colIndex, len(header))
	for i, name := range header {
		idx[name] = i
	}
	return idx
}

func (idx colIndex) get(row []string, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func (idx colIndex) getInt(row []string, name string) (int, error) {
	s := idx.get(row, name)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("column %s: %q is not an integer", name, s)
	}
	return n, nil
}

// Package warehouse implements the university data warehouse ETL pipeline:
// dimension transformation, schema management, ordered loading, and fact
// synthesis against a PostgreSQL star schema.
package warehouse

import (
	"fmt"
	"regexp"
	"time"
)

// Warehouse table names. These are a compatibility surface for external
// consumers and must not change.
const (
	TableDate       = "dim_date"
	TableStudent    = "dim_student"
	TableCourse     = "dim_course"
	TableDepartment = "dim_department"
	TableEmployee   = "dim_employee"
	TableAccount    = "dim_account"
	TableVendor     = "dim_vendor"
	TableAcademics  = "fact_academics"
	TableHRMetrics  = "fact_hr_metrics"
	TableFinance    = "fact_finance"
)

// DimensionTables lists the dimension tables in load order: dates and
// departments first, employees last (they reference departments).
var DimensionTables = []string{
	TableDate, TableDepartment, TableAccount, TableVendor,
	TableCourse, TableStudent, TableEmployee,
}

// FactTables lists the fact tables.
var FactTables = []string{TableAcademics, TableHRMetrics, TableFinance}

// AllTables lists every warehouse table.
var AllTables = append(append([]string{}, DimensionTables...), FactTables...)

// ValidAccountTypes are the accepted ledger account types.
var ValidAccountTypes = []string{"Asset", "Liability", "Equity", "Revenue", "Expense"}

// Department is a cleaned dim_department row.
type Department struct {
	ID        int
	Name      string
	ManagerID int // 0 means no manager
	Budget    float64
	Location  string
}

// Employee is a cleaned dim_employee row.
type Employee struct {
	ID               int
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	HireDate         time.Time // zero means unknown, persisted as NULL
	JobTitle         string
	Salary           float64
	DepartmentID     int
	ManagerID        int
	EmploymentType   string
	BenefitsEligible bool
	TenureYears      float64
}

// Student is a cleaned dim_student row.
type Student struct {
	ID            int
	FirstName     string
	LastName      string
	Gender        string
	BirthDate     time.Time
	AdmissionYear int
	Program       string
	City          string
	Country       string
	CreatedAt     time.Time
	Age           int
}

// Course is a cleaned dim_course row.
type Course struct {
	ID          int
	Code        string
	Name        string
	Department  string
	CreditHours int
	Level       string
}

// Account is a cleaned dim_account row.
type Account struct {
	ID       int
	Code     string
	Name     string
	Type     string
	Category string
}

// Vendor is a cleaned dim_vendor row.
type Vendor struct {
	ID            int
	Name          string
	Type          string
	ContactPerson string
	Phone         string
	Email         string
}

// DateDim is a dim_date row. All calendar columns are derived from Date.
type DateDim struct {
	Key       int // YYYYMMDD encoding of Date
	Date      time.Time
	Year      int
	Quarter   int
	Month     int
	Week      int
	Day       int
	Weekday   string
	IsWeekend bool
	Semester  string
}

// AcademicFact is a fact_academics row.
type AcademicFact struct {
	DateKey           int
	StudentID         int
	CourseID          int
	EmployeeID        int
	Grade             float64
	AttendancePercent float64
	FeePaid           float64
}

// HRFact is a fact_hr_metrics row.
type HRFact struct {
	EmployeeID        int
	DepartmentID      int
	DateKey           int
	SalaryAmount      float64
	BonusAmount       float64
	OvertimeHours     float64
	LeaveDaysTaken    int
	PerformanceRating float64
}

// FinanceFact is a fact_finance row.
type FinanceFact struct {
	DateKey         int
	AccountID       int
	DepartmentID    int
	VendorID        int
	TransactionType string // Revenue or Expense
	Amount          float64
	Description     string
	ReferenceNumber string
}

// Dimensions is the cleaned dimension set produced by the Transformer,
// keyed by dimension, ready for the Loader.
type Dimensions struct {
	Dates       []DateDim
	Departments []Department
	Accounts    []Account
	Vendors     []Vendor
	Courses     []Course
	Students    []Student
	Employees   []Employee
}

// EncodeDateKey encodes a calendar date as its YYYYMMDD integer key.
func EncodeDateKey(d time.Time) int {
	return d.Year()*10000 + int(d.Month())*100 + d.Day()
}

// DecodeDateKey decodes a YYYYMMDD integer key back into a calendar date
// (midnight UTC). The encoding is a bijection for any valid calendar date.
func DecodeDateKey(key int) time.Time {
	return time.Date(key/10000, time.Month(key/100%100), key%100, 0, 0, 0, 0, time.UTC)
}

// NormalizeDate strips the time-of-day and timezone from a timestamp,
// leaving a bare calendar date at midnight UTC. Date columns cross the
// CSV/DATE boundary in this form because the persisted column type drops
// time-of-day.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dateLayouts are the accepted source formats for date-like columns.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

// ParseDate parses a date-like source value. The second return value is
// false when the value is empty or unparsable; callers persist those as
// NULL or apply a repair rule.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NormalizeDate(t), true
		}
	}
	return time.Time{}, false
}

var courseNumberRe = regexp.MustCompile(`\d+`)

// CourseLevel derives a course level from the numeric portion of a course
// code: <200 Introductory, <400 Intermediate, otherwise Advanced. Codes
// with no numeric portion map to Unknown.
func CourseLevel(code string) string {
	m := courseNumberRe.FindString(code)
	if m == "" {
		return "Unknown"
	}
	var n int
	fmt.Sscanf(m, "%d", &n)
	switch {
	case n < 200:
		return "Introductory"
	case n < 400:
		return "Intermediate"
	default:
		return "Advanced"
	}
}

// SemesterLabel maps a date to its academic semester: Jan-Apr Spring,
// May-Aug Summer, Sep-Dec Fall, suffixed with the year.
func SemesterLabel(d time.Time) string {
	var sem string
	switch {
	case d.Month() <= 4:
		sem = "Spring"
	case d.Month() <= 8:
		sem = "Summer"
	default:
		sem = "Fall"
	}
	return fmt.Sprintf("%s %d", sem, d.Year())
}

// IsWarehouseTable reports whether name is one of the ten warehouse tables.
func IsWarehouseTable(name string) bool {
	for _, t := range AllTables {
		if t == name {
			return true
		}
	}
	return false
}

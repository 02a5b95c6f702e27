package datagen

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/campusmetrics/unidwh/internal/logging"
)

// DimensionFiles lists the seven dimension CSV files, in the order they
// are generated.
var DimensionFiles = []string{
	"dim_date.csv",
	"dim_department.csv",
	"dim_employee.csv",
	"dim_student.csv",
	"dim_course.csv",
	"dim_account.csv",
	"dim_vendor.csv",
}

// Reference data for the university demo set.
var (
	departmentNames = []string{
		"Computer Science", "Software Engineering", "Business",
		"Electrical Engineering", "Mathematics", "Human Resources",
		"Finance", "Administration",
	}
	jobTitles = []string{
		"Professor", "Associate Professor", "Assistant Professor", "Lecturer",
		"HR Manager", "Finance Officer", "Administrative Assistant",
		"IT Support", "Department Head", "Research Assistant",
	}
	employmentTypes = []string{"Full-time", "Part-time", "Contract"}
	// Includes the short spellings on purpose: the transformer is expected
	// to normalize them.
	programs = []string{
		"BS Computer Science", "BS Software Eng", "BS Business",
		"BS Electrical", "BS Mathematics",
	}
	accountTypes      = []string{"Asset", "Liability", "Equity", "Revenue", "Expense"}
	accountCategories = []string{"Tuition", "Salary", "Equipment", "Utilities", "Supplies", "Maintenance"}
	vendorTypes       = []string{"Supplier", "Service Provider", "Contractor", "Utility Company"}
)

// DimensionGenConfig controls how many rows each dimension file gets.
type DimensionGenConfig struct {
	OutputDir     string
	Students      int
	Employees     int
	Courses       int
	Departments   int
	Accounts      int
	Vendors       int
	CalendarYears int
}

// DimensionGenerator writes synthetic dimension CSV files.
type DimensionGenerator struct {
	faker *Faker
	cfg   DimensionGenConfig
}

// NewDimensionGenerator creates a generator for the given configuration.
func NewDimensionGenerator(faker *Faker, cfg DimensionGenConfig) *DimensionGenerator {
	return &DimensionGenerator{faker: faker, cfg: cfg}
}

// FilesExist reports whether all seven dimension files already exist in dir.
func FilesExist(dir string) bool {
	for _, name := range DimensionFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

// Generate writes all seven dimension CSV files.
func (g *DimensionGenerator) Generate() error {
	writers := []struct {
		file  string
		write func(*csv.Writer) (int, error)
	}{
		{"dim_date.csv", g.writeDates},
		{"dim_department.csv", g.writeDepartments},
		{"dim_employee.csv", g.writeEmployees},
		{"dim_student.csv", g.writeStudents},
		{"dim_course.csv", g.writeCourses},
		{"dim_account.csv", g.writeAccounts},
		{"dim_vendor.csv", g.writeVendors},
	}

	for _, w := range writers {
		rows, err := g.writeFile(w.file, w.write)
		if err != nil {
			return fmt.Errorf("failed to generate %s: %w", w.file, err)
		}
		logging.Info().
			Str("file", w.file).
			Int("rows", rows).
			Msg("Generated dimension file")
	}
	return nil
}

func (g *DimensionGenerator) writeFile(name string, write func(*csv.Writer) (int, error)) (int, error) {
	f, err := os.Create(filepath.Join(g.cfg.OutputDir, name))
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows, err := write(w)
	if err != nil {
		return 0, err
	}
	w.Flush()
	return rows, w.Error()
}

func (g *DimensionGenerator) departmentName(i int) string {
	if i <= len(departmentNames) {
		return departmentNames[i-1]
	}
	return g.faker.Company()
}

func (g *DimensionGenerator) writeDepartments(w *csv.Writer) (int, error) {
	if err := w.Write([]string{"department_id", "department_name", "manager_id", "budget", "location"}); err != nil {
		return 0, err
	}
	for i := 1; i <= g.cfg.Departments; i++ {
		// Managers are assigned after the fact by operators; left empty
		// so the transformer's repair path gets exercised.
		err := w.Write([]string{
			strconv.Itoa(i),
			g.departmentName(i),
			"",
			formatMoney(g.faker.Float64(50000, 500000)),
			g.faker.City(),
		})
		if err != nil {
			return 0, err
		}
	}
	return g.cfg.Departments, nil
}

func (g *DimensionGenerator) writeEmployees(w *csv.Writer) (int, error) {
	header := []string{
		"employee_id", "first_name", "last_name", "email", "phone",
		"hire_date", "job_title", "salary", "department_id", "manager_id",
		"employment_type", "benefits_eligible",
	}
	if err := w.Write(header); err != nil {
		return 0, err
	}

	now := time.Now()
	var managerIDs []int
	type row struct {
		fields  []string
		manager bool
	}
	rows := make([]row, 0, g.cfg.Employees)

	for i := 1; i <= g.cfg.Employees; i++ {
		isManager := g.faker.Chance(0.1)
		if isManager {
			managerIDs = append(managerIDs, i)
		}
		hireDate := g.faker.DateRange(now.AddDate(-15, 0, 0), now)
		rows = append(rows, row{
			fields: []string{
				strconv.Itoa(i),
				g.faker.FirstName(),
				g.faker.LastName(),
				g.faker.Email(),
				Truncate(g.faker.Phone(), 20),
				hireDate.Format("2006-01-02"),
				Choose(g.faker, jobTitles),
				formatMoney(g.faker.Float64(30000, 120000)),
				strconv.Itoa(g.faker.Int(1, g.cfg.Departments)),
				"", // manager filled below
				Choose(g.faker, employmentTypes),
				strconv.FormatBool(g.faker.Bool()),
			},
			manager: isManager,
		})
	}

	for _, r := range rows {
		if !r.manager && len(managerIDs) > 0 {
			r.fields[9] = strconv.Itoa(Choose(g.faker, managerIDs))
		}
		if err := w.Write(r.fields); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

func (g *DimensionGenerator) writeStudents(w *csv.Writer) (int, error) {
	header := []string{
		"student_id", "first_name", "last_name", "gender", "birth_date",
		"admission_year", "program", "city", "country", "created_at",
	}
	if err := w.Write(header); err != nil {
		return 0, err
	}

	now := time.Now()
	for i := 1; i <= g.cfg.Students; i++ {
		birth := g.faker.DateRange(now.AddDate(-30, 0, 0), now.AddDate(-17, 0, 0))
		admYear := g.faker.Int(now.Year()-7, now.Year()-2)
		created := g.faker.DateRange(time.Date(admYear, time.January, 1, 0, 0, 0, 0, time.UTC), now)
		gender := "Female"
		if g.faker.Bool() {
			gender = "Male"
		}
		err := w.Write([]string{
			strconv.Itoa(i),
			g.faker.FirstName(),
			g.faker.LastName(),
			gender,
			birth.Format("2006-01-02"),
			strconv.Itoa(admYear),
			Choose(g.faker, programs),
			g.faker.City(),
			g.faker.Country(),
			created.Format("2006-01-02"),
		})
		if err != nil {
			return 0, err
		}
	}
	return g.cfg.Students, nil
}

func (g *DimensionGenerator) writeCourses(w *csv.Writer) (int, error) {
	header := []string{"course_id", "course_code", "course_name", "department", "credit_hours"}
	if err := w.Write(header); err != nil {
		return 0, err
	}

	academic := departmentNames[:5]
	for i := 1; i <= g.cfg.Courses; i++ {
		dept := Choose(g.faker, academic)
		code := fmt.Sprintf("%s%d", strings.ToUpper(dept[:3]), 100+i)
		name := strings.TrimRight(g.faker.Sentence(3), ".")
		err := w.Write([]string{
			strconv.Itoa(i),
			code,
			name,
			dept,
			strconv.Itoa(Choose(g.faker, []int{2, 3, 4})),
		})
		if err != nil {
			return 0, err
		}
	}
	return g.cfg.Courses, nil
}

func (g *DimensionGenerator) writeAccounts(w *csv.Writer) (int, error) {
	header := []string{"account_id", "account_code", "account_name", "account_type", "category"}
	if err := w.Write(header); err != nil {
		return 0, err
	}

	for i := 1; i <= g.cfg.Accounts; i++ {
		err := w.Write([]string{
			strconv.Itoa(i),
			fmt.Sprintf("ACC%d", 1000+i),
			fmt.Sprintf("%s Account", Choose(g.faker, accountCategories)),
			Choose(g.faker, accountTypes),
			Choose(g.faker, accountCategories),
		})
		if err != nil {
			return 0, err
		}
	}
	return g.cfg.Accounts, nil
}

func (g *DimensionGenerator) writeVendors(w *csv.Writer) (int, error) {
	header := []string{"vendor_id", "vendor_name", "vendor_type", "contact_person", "phone", "email"}
	if err := w.Write(header); err != nil {
		return 0, err
	}

	for i := 1; i <= g.cfg.Vendors; i++ {
		err := w.Write([]string{
			strconv.Itoa(i),
			g.faker.Company(),
			Choose(g.faker, vendorTypes),
			g.faker.Name(),
			Truncate(g.faker.Phone(), 20),
			g.faker.Email(),
		})
		if err != nil {
			return 0, err
		}
	}
	return g.cfg.Vendors, nil
}

func (g *DimensionGenerator) writeDates(w *csv.Writer) (int, error) {
	header := []string{
		"date_key", "date", "year", "quarter", "month", "week", "day",
		"weekday", "is_weekend", "semester",
	}
	if err := w.Write(header); err != nil {
		return 0, err
	}

	end := time.Now().UTC().Truncate(24 * time.Hour)
	d := end.AddDate(-g.cfg.CalendarYears, 0, 0)
	count := 0
	for !d.After(end) {
		quarter := (int(d.Month())-1)/3 + 1
		_, week := d.ISOWeek()
		isWeekend := d.Weekday() == time.Saturday || d.Weekday() == time.Sunday
		err := w.Write([]string{
			d.Format("20060102"),
			d.Format("2006-01-02"),
			strconv.Itoa(d.Year()),
			strconv.Itoa(quarter),
			strconv.Itoa(int(d.Month())),
			strconv.Itoa(week),
			strconv.Itoa(d.Day()),
			d.Weekday().String(),
			strconv.FormatBool(isWeekend),
			semesterLabel(d),
		})
		if err != nil {
			return 0, err
		}
		count++
		d = d.AddDate(0, 0, 1)
	}
	return count, nil
}

// semesterLabel maps a date to its academic semester:
// Jan-Apr Spring, May-Aug Summer, Sep-Dec Fall.
func semesterLabel(d time.Time) string {
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

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

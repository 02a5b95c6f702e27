package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/campusmetrics/unidwh/internal/db"
	"github.com/campusmetrics/unidwh/internal/logging"
)

const defaultBatchSize = 1000

// Loader persists cleaned dimension tables in strict dependency order:
// dates and departments before everything, employees last because they
// carry the department foreign key. Append-only; it assumes a freshly
// rebuilt empty schema.
type Loader struct {
	conn      db.DB
	repair    RepairPolicy
	batchSize int
}

// NewLoader creates a Loader writing through conn. The repair policy
// handles employee department references that are still dangling at load
// time.
func NewLoader(conn db.DB, repair RepairPolicy) *Loader {
	return &Loader{conn: conn, repair: repair, batchSize: defaultBatchSize}
}

// Load writes all seven dimension tables.
func (l *Loader) Load(ctx context.Context, dims *Dimensions) error {
	if err := l.loadDates(ctx, dims.Dates); err != nil {
		return fmt.Errorf("failed to load dim_date: %w", err)
	}
	if err := l.loadDepartments(ctx, dims.Departments); err != nil {
		return fmt.Errorf("failed to load dim_department: %w", err)
	}
	if err := l.loadAccounts(ctx, dims.Accounts); err != nil {
		return fmt.Errorf("failed to load dim_account: %w", err)
	}
	if err := l.loadVendors(ctx, dims.Vendors); err != nil {
		return fmt.Errorf("failed to load dim_vendor: %w", err)
	}
	if err := l.loadCourses(ctx, dims.Courses); err != nil {
		return fmt.Errorf("failed to load dim_course: %w", err)
	}
	if err := l.loadStudents(ctx, dims.Students); err != nil {
		return fmt.Errorf("failed to load dim_student: %w", err)
	}
	// Employees go last: their department references are re-validated
	// against the department rows that actually landed.
	if err := l.loadEmployees(ctx, dims.Employees); err != nil {
		return fmt.Errorf("failed to load dim_employee: %w", err)
	}

	logging.Info().Msg("All dimensions loaded")
	return nil
}

// repairEmployeeDepartments re-validates department references against the
// persisted department id set. The Transformer already repaired against
// the raw set; this second pass against the persisted set is
// authoritative.
func (l *Loader) repairEmployeeDepartments(ctx context.Context, employees []Employee) ([]Employee, error) {
	rows, err := l.conn.Query(ctx, "SELECT department_id FROM dim_department")
	if err != nil {
		return nil, fmt.Errorf("failed to read persisted departments: %w", err)
	}
	defer rows.Close()

	valid := make(map[int]bool)
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		valid[id] = true
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return employees, nil
	}

	out := make([]Employee, len(employees))
	copy(out, employees)
	for i := range out {
		if !valid[out[i].DepartmentID] {
			replacement := l.repair.PickID(ids)
			logging.Warn().
				Int("employee_id", out[i].ID).
				Int("department_id", out[i].DepartmentID).
				Int("replacement", replacement).
				Msg("Employee department missing from warehouse, reassigned")
			out[i].DepartmentID = replacement
		}
	}
	return out, nil
}

func (l *Loader) loadDates(ctx context.Context, dates []DateDim) error {
	values := make([]string, 0, len(dates))
	for _, d := range dates {
		values = append(values, fmt.Sprintf("(%d, %s, %d, %d, %d, %d, %d, '%s', %t, '%s')",
			d.Key, sqlDate(d.Date), d.Year, d.Quarter, d.Month, d.Week, d.Day,
			escapeSingleQuote(d.Weekday), d.IsWeekend, escapeSingleQuote(d.Semester),
		))
	}
	return l.insertBatches(ctx, TableDate,
		"(date_key, date, year, quarter, month, week, day, weekday, is_weekend, semester)", values)
}

func (l *Loader) loadDepartments(ctx context.Context, departments []Department) error {
	values := make([]string, 0, len(departments))
	for _, d := range departments {
		values = append(values, fmt.Sprintf("(%d, '%s', %d, %.2f, '%s')",
			d.ID, escapeSingleQuote(d.Name), d.ManagerID, d.Budget,
			escapeSingleQuote(d.Location),
		))
	}
	return l.insertBatches(ctx, TableDepartment,
		"(department_id, department_name, manager_id, budget, location)", values)
}

func (l *Loader) loadAccounts(ctx context.Context, accounts []Account) error {
	values := make([]string, 0, len(accounts))
	for _, a := range accounts {
		values = append(values, fmt.Sprintf("(%d, '%s', '%s', '%s', '%s')",
			a.ID, escapeSingleQuote(a.Code), escapeSingleQuote(a.Name),
			escapeSingleQuote(a.Type), escapeSingleQuote(a.Category),
		))
	}
	return l.insertBatches(ctx, TableAccount,
		"(account_id, account_code, account_name, account_type, category)", values)
}

func (l *Loader) loadVendors(ctx context.Context, vendors []Vendor) error {
	values := make([]string, 0, len(vendors))
	for _, v := range vendors {
		values = append(values, fmt.Sprintf("(%d, '%s', '%s', '%s', '%s', '%s')",
			v.ID, escapeSingleQuote(v.Name), escapeSingleQuote(v.Type),
			escapeSingleQuote(v.ContactPerson), escapeSingleQuote(v.Phone),
			escapeSingleQuote(v.Email),
		))
	}
	return l.insertBatches(ctx, TableVendor,
		"(vendor_id, vendor_name, vendor_type, contact_person, phone, email)", values)
}

func (l *Loader) loadCourses(ctx context.Context, courses []Course) error {
	values := make([]string, 0, len(courses))
	for _, c := range courses {
		values = append(values, fmt.Sprintf("(%d, '%s', '%s', '%s', %d, '%s')",
			c.ID, escapeSingleQuote(c.Code), escapeSingleQuote(c.Name),
			escapeSingleQuote(c.Department), c.CreditHours,
			escapeSingleQuote(c.Level),
		))
	}
	return l.insertBatches(ctx, TableCourse,
		"(course_id, course_code, course_name, department, credit_hours, course_level)", values)
}

func (l *Loader) loadStudents(ctx context.Context, students []Student) error {
	values := make([]string, 0, len(students))
	for _, s := range students {
		values = append(values, fmt.Sprintf("(%d, '%s', '%s', '%s', %s, %d, '%s', '%s', '%s', %s, %d)",
			s.ID, escapeSingleQuote(s.FirstName), escapeSingleQuote(s.LastName),
			escapeSingleQuote(s.Gender), sqlDate(s.BirthDate), s.AdmissionYear,
			escapeSingleQuote(s.Program), escapeSingleQuote(s.City),
			escapeSingleQuote(s.Country), sqlDate(s.CreatedAt), s.Age,
		))
	}
	return l.insertBatches(ctx, TableStudent,
		"(student_id, first_name, last_name, gender, birth_date, admission_year, program, city, country, created_at, age)", values)
}

func (l *Loader) loadEmployees(ctx context.Context, employees []Employee) error {
	repaired, err := l.repairEmployeeDepartments(ctx, employees)
	if err != nil {
		return err
	}

	values := make([]string, 0, len(repaired))
	for _, e := range repaired {
		values = append(values, fmt.Sprintf("(%d, '%s', '%s', '%s', '%s', %s, '%s', %.2f, %d, %d, '%s', %t, %.1f)",
			e.ID, escapeSingleQuote(e.FirstName), escapeSingleQuote(e.LastName),
			escapeSingleQuote(e.Email), escapeSingleQuote(e.Phone),
			sqlDate(e.HireDate), escapeSingleQuote(e.JobTitle), e.Salary,
			e.DepartmentID, e.ManagerID, escapeSingleQuote(e.EmploymentType),
			e.BenefitsEligible, e.TenureYears,
		))
	}
	return l.insertBatches(ctx, TableEmployee,
		"(employee_id, first_name, last_name, email, phone, hire_date, job_title, salary, department_id, manager_id, employment_type, benefits_eligible, tenure_years)", values)
}

func (l *Loader) insertBatches(ctx context.Context, table, columns string, values []string) error {
	if err := insertBatches(ctx, l.conn, table, columns, values, l.batchSize); err != nil {
		return err
	}
	logging.Info().
		Str("table", table).
		Int("rows", len(values)).
		Msg("Loaded dimension")
	return nil
}

// insertBatches appends rows with multi-row INSERT statements, batchSize
// rows at a time.
func insertBatches(ctx context.Context, conn db.DB, table, columns string, values []string, batchSize int) error {
	for start := 0; start < len(values); start += batchSize {
		end := min(start+batchSize, len(values))
		sql := fmt.Sprintf("INSERT INTO %s %s VALUES %s",
			table, columns, strings.Join(values[start:end], ", "))
		if _, err := conn.Exec(ctx, sql); err != nil {
			return err
		}
	}
	return nil
}

func escapeSingleQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// sqlDate renders a calendar date as a SQL literal. Zero dates become
// NULL; everything else is normalized to a bare date before crossing the
// DATE column boundary.
func sqlDate(t time.Time) string {
	if t.IsZero() {
		return "NULL"
	}
	return fmt.Sprintf("'%s'", NormalizeDate(t).Format("2006-01-02"))
}

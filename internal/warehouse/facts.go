package warehouse

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/campusmetrics/unidwh/internal/datagen"
	"github.com/campusmetrics/unidwh/internal/db"
	"github.com/campusmetrics/unidwh/internal/logging"
)

// SynthesisConfig controls fact generation volume.
type SynthesisConfig struct {
	// AcademicSamples is how many students are sampled (with replacement,
	// then de-duplicated) for academic facts.
	AcademicSamples int

	// FinanceRecords is the number of finance transactions to generate.
	FinanceRecords int

	// Now anchors the HR quarterly window and defaults to the wall clock.
	Now time.Time
}

// Synthesizer generates synthetic fact rows from the persisted dimension
// tables and appends them to the fact tables. It must run after the Loader
// so the dimension keys it samples actually exist.
type Synthesizer struct {
	conn      db.DB
	faker     *datagen.Faker
	cfg       SynthesisConfig
	batchSize int
}

// NewSynthesizer creates a Synthesizer writing through conn.
func NewSynthesizer(conn db.DB, faker *datagen.Faker, cfg SynthesisConfig) *Synthesizer {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	return &Synthesizer{conn: conn, faker: faker, cfg: cfg, batchSize: defaultBatchSize}
}

// Run reads the persisted dimensions back and generates all three fact
// tables. The three passes are independent of each other.
func (s *Synthesizer) Run(ctx context.Context) error {
	dims, err := s.readDimensions(ctx)
	if err != nil {
		return fmt.Errorf("failed to read persisted dimensions: %w", err)
	}

	academic := s.AcademicFacts(dims)
	if err := s.insertAcademic(ctx, academic); err != nil {
		return fmt.Errorf("failed to insert academic facts: %w", err)
	}

	hr := s.HRFacts(dims)
	if err := s.insertHR(ctx, hr); err != nil {
		return fmt.Errorf("failed to insert HR facts: %w", err)
	}

	finance := s.FinanceFacts(dims)
	if err := s.insertFinance(ctx, finance); err != nil {
		return fmt.Errorf("failed to insert finance facts: %w", err)
	}

	logging.Info().
		Int("academic", len(academic)).
		Int("hr", len(hr)).
		Int("finance", len(finance)).
		Msg("Fact synthesis complete")
	return nil
}

// AcademicFacts samples students (with replacement, de-duplicated) and
// pairs each with a random course, instructor, and date. Grades follow a
// normal distribution adjusted by course level and student age.
func (s *Synthesizer) AcademicFacts(dims *Dimensions) []AcademicFact {
	if len(dims.Students) == 0 || len(dims.Courses) == 0 ||
		len(dims.Employees) == 0 || len(dims.Dates) == 0 {
		return nil
	}

	// Instructors prefer teaching titles; if nothing matches, anyone
	// will do.
	var instructors []Employee
	for _, e := range dims.Employees {
		if strings.Contains(e.JobTitle, "Professor") || strings.Contains(e.JobTitle, "Lecturer") {
			instructors = append(instructors, e)
		}
	}
	if len(instructors) == 0 {
		instructors = dims.Employees
	}

	seen := make(map[int]bool)
	var facts []AcademicFact
	for i := 0; i < s.cfg.AcademicSamples; i++ {
		student := datagen.Choose(s.faker, dims.Students)
		if seen[student.ID] {
			continue
		}
		seen[student.ID] = true

		course := datagen.Choose(s.faker, dims.Courses)
		instructor := datagen.Choose(s.faker, instructors)
		date := datagen.Choose(s.faker, dims.Dates)

		grade := s.faker.Gauss(70, 12)
		switch course.Level {
		case "Advanced":
			grade -= 5
		case "Introductory":
			grade += 5
		}
		if student.Age > 25 {
			grade += 3
		}
		grade = clip(grade, 0, 100)

		attendance := clip(grade+s.faker.Gauss(0, 8), 60, 100)

		fee := float64(course.CreditHours) * 250
		if s.faker.Chance(0.2) {
			fee *= 0.8
		}

		facts = append(facts, AcademicFact{
			DateKey:           date.Key,
			StudentID:         student.ID,
			CourseID:          course.ID,
			EmployeeID:        instructor.ID,
			Grade:             round1(grade),
			AttendancePercent: round1(attendance),
			FeePaid:           math.Round(fee*100) / 100,
		})
	}
	return facts
}

// HRFacts generates up to 8 quarterly snapshots per employee over roughly
// the last two years. When no quarterly dates exist in the window it falls
// back to any 4 available dates.
func (s *Synthesizer) HRFacts(dims *Dimensions) []HRFact {
	if len(dims.Employees) == 0 || len(dims.Dates) == 0 {
		return nil
	}

	cutoff := NormalizeDate(s.cfg.Now).AddDate(-2, 0, 0)
	var quarterly []DateDim
	for _, d := range dims.Dates {
		if !d.Date.Before(cutoff) && (d.Month == 3 || d.Month == 6 || d.Month == 9 || d.Month == 12) {
			quarterly = append(quarterly, d)
		}
	}

	var facts []HRFact
	for _, e := range dims.Employees {
		var snapshots []DateDim
		if len(quarterly) == 0 {
			snapshots = s.sampleDates(dims.Dates, 4)
		} else {
			snapshots = s.sampleDates(quarterly, 8)
		}

		for _, date := range snapshots {
			performance := s.faker.Gauss(3.5, 0.5)
			if e.TenureYears > 5 {
				performance += 0.3
			}
			if strings.Contains(e.JobTitle, "Professor") {
				performance += 0.2
			}
			performance = clip(performance, 1.0, 5.0)

			facts = append(facts, HRFact{
				EmployeeID:        e.ID,
				DepartmentID:      e.DepartmentID,
				DateKey:           date.Key,
				SalaryAmount:      e.Salary,
				BonusAmount:       math.Round(e.Salary*(performance/20)*100) / 100,
				OvertimeHours:     round1(s.faker.Float64(0, 10)),
				LeaveDaysTaken:    s.faker.Int(0, 8),
				PerformanceRating: round1(performance),
			})
		}
	}
	return facts
}

// FinanceFacts generates a fixed count of transactions. The transaction
// type follows the account type: Expense accounts always produce Expense
// rows, everything else produces Revenue.
func (s *Synthesizer) FinanceFacts(dims *Dimensions) []FinanceFact {
	if len(dims.Accounts) == 0 || len(dims.Departments) == 0 ||
		len(dims.Vendors) == 0 || len(dims.Dates) == 0 {
		return nil
	}

	// Transactions land on recent dates when any exist.
	var recent []DateDim
	for _, d := range dims.Dates {
		if d.Year >= 2020 {
			recent = append(recent, d)
		}
	}
	if len(recent) == 0 {
		recent = dims.Dates
	}

	facts := make([]FinanceFact, 0, s.cfg.FinanceRecords)
	for i := 0; i < s.cfg.FinanceRecords; i++ {
		account := datagen.Choose(s.faker, dims.Accounts)
		department := datagen.Choose(s.faker, dims.Departments)
		vendor := datagen.Choose(s.faker, dims.Vendors)
		date := datagen.Choose(s.faker, recent)

		txType := "Revenue"
		if account.Type == "Expense" {
			txType = "Expense"
		}

		var amount float64
		if txType == "Revenue" {
			amount = s.faker.Float64(1000, 50000)
		} else {
			amount = s.faker.Float64(100, 20000)
		}
		amount = math.Round(amount*100) / 100
		if department.Name == "Finance" || department.Name == "Administration" {
			amount *= 1.5
		}

		facts = append(facts, FinanceFact{
			DateKey:         date.Key,
			AccountID:       account.ID,
			DepartmentID:    department.ID,
			VendorID:        vendor.ID,
			TransactionType: txType,
			Amount:          amount,
			Description:     fmt.Sprintf("%s for %s - %s", txType, account.Category, vendor.Name),
			ReferenceNumber: fmt.Sprintf("REF%s", s.faker.Digits(5)),
		})
	}
	return facts
}

// sampleDates picks up to n distinct dates.
func (s *Synthesizer) sampleDates(dates []DateDim, n int) []DateDim {
	if n >= len(dates) {
		out := make([]DateDim, len(dates))
		copy(out, dates)
		return out
	}
	// Partial Fisher-Yates: the first n positions end up as the sample.
	out := make([]DateDim, len(dates))
	copy(out, dates)
	for i := 0; i < n; i++ {
		j := s.faker.Int(i, len(out)-1)
		out[i], out[j] = out[j], out[i]
	}
	return out[:n]
}

func (s *Synthesizer) insertAcademic(ctx context.Context, facts []AcademicFact) error {
	values := make([]string, 0, len(facts))
	for _, f := range facts {
		values = append(values, fmt.Sprintf("(%d, %d, %d, %d, %.2f, %.2f, %.2f)",
			f.DateKey, f.StudentID, f.CourseID, f.EmployeeID,
			f.Grade, f.AttendancePercent, f.FeePaid,
		))
	}
	return insertBatches(ctx, s.conn, TableAcademics,
		"(date_key, student_id, course_id, employee_id, grade, attendance_percent, fee_paid)",
		values, s.batchSize)
}

func (s *Synthesizer) insertHR(ctx context.Context, facts []HRFact) error {
	values := make([]string, 0, len(facts))
	for _, f := range facts {
		values = append(values, fmt.Sprintf("(%d, %d, %d, %.2f, %.2f, %.2f, %d, %.2f)",
			f.EmployeeID, f.DepartmentID, f.DateKey, f.SalaryAmount,
			f.BonusAmount, f.OvertimeHours, f.LeaveDaysTaken, f.PerformanceRating,
		))
	}
	return insertBatches(ctx, s.conn, TableHRMetrics,
		"(employee_id, department_id, date_key, salary_amount, bonus_amount, overtime_hours, leave_days_taken, performance_rating)",
		values, s.batchSize)
}

func (s *Synthesizer) insertFinance(ctx context.Context, facts []FinanceFact) error {
	values := make([]string, 0, len(facts))
	for _, f := range facts {
		values = append(values, fmt.Sprintf("(%d, %d, %d, %d, '%s', %.2f, '%s', '%s')",
			f.DateKey, f.AccountID, f.DepartmentID, f.VendorID,
			f.TransactionType, f.Amount,
			escapeSingleQuote(datagen.Truncate(f.Description, 200)),
			escapeSingleQuote(f.ReferenceNumber),
		))
	}
	return insertBatches(ctx, s.conn, TableFinance,
		"(date_key, account_id, department_id, vendor_id, transaction_type, amount, description, reference_number)",
		values, s.batchSize)
}

// readDimensions reads the persisted dimension tables back from the
// warehouse. Date columns come back as full timestamps again after their
// trip through the DATE column type.
func (s *Synthesizer) readDimensions(ctx context.Context) (*Dimensions, error) {
	dims := &Dimensions{}

	rows, err := s.conn.Query(ctx, `
        SELECT date_key, date, year, quarter, month, week, day, weekday, is_weekend, semester
        FROM dim_date`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var d DateDim
		var date *time.Time
		if err := rows.Scan(&d.Key, &date, &d.Year, &d.Quarter, &d.Month,
			&d.Week, &d.Day, &d.Weekday, &d.IsWeekend, &d.Semester); err != nil {
			rows.Close()
			return nil, err
		}
		if date != nil {
			d.Date = *date
		}
		dims.Dates = append(dims.Dates, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.conn.Query(ctx, `
        SELECT department_id, department_name, manager_id, budget, location
        FROM dim_department`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.ManagerID, &d.Budget, &d.Location); err != nil {
			rows.Close()
			return nil, err
		}
		dims.Departments = append(dims.Departments, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.conn.Query(ctx, `
        SELECT account_id, account_code, account_name, account_type, category
        FROM dim_account`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Category); err != nil {
			rows.Close()
			return nil, err
		}
		dims.Accounts = append(dims.Accounts, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.conn.Query(ctx, `
        SELECT vendor_id, vendor_name, vendor_type, contact_person, phone, email
        FROM dim_vendor`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.Type, &v.ContactPerson, &v.Phone, &v.Email); err != nil {
			rows.Close()
			return nil, err
		}
		dims.Vendors = append(dims.Vendors, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.conn.Query(ctx, `
        SELECT course_id, course_code, course_name, department, credit_hours, course_level
        FROM dim_course`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Department, &c.CreditHours, &c.Level); err != nil {
			rows.Close()
			return nil, err
		}
		dims.Courses = append(dims.Courses, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.conn.Query(ctx, `
        SELECT student_id, first_name, last_name, gender, birth_date, admission_year,
               program, city, country, created_at, age
        FROM dim_student`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var st Student
		var birth, created *time.Time
		if err := rows.Scan(&st.ID, &st.FirstName, &st.LastName, &st.Gender, &birth,
			&st.AdmissionYear, &st.Program, &st.City, &st.Country, &created, &st.Age); err != nil {
			rows.Close()
			return nil, err
		}
		if birth != nil {
			st.BirthDate = *birth
		}
		if created != nil {
			st.CreatedAt = *created
		}
		dims.Students = append(dims.Students, st)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.conn.Query(ctx, `
        SELECT employee_id, first_name, last_name, email, phone, hire_date, job_title,
               salary, department_id, manager_id, employment_type, benefits_eligible, tenure_years
        FROM dim_employee`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var e Employee
		var hire *time.Time
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Phone, &hire,
			&e.JobTitle, &e.Salary, &e.DepartmentID, &e.ManagerID, &e.EmploymentType,
			&e.BenefitsEligible, &e.TenureYears); err != nil {
			rows.Close()
			return nil, err
		}
		if hire != nil {
			e.HireDate = *hire
		}
		dims.Employees = append(dims.Employees, e)
	}
	rows.Close()
	return dims, rows.Err()
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

//go:build integration

package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/campusmetrics/unidwh/internal/datagen"
	"github.com/campusmetrics/unidwh/internal/testutil"
)

func integrationDims() *Dimensions {
	var dates []DateDim
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 730; i++ {
		d := start.AddDate(0, 0, i)
		_, week := d.ISOWeek()
		dates = append(dates, DateDim{
			Key:       EncodeDateKey(d),
			Date:      d,
			Year:      d.Year(),
			Quarter:   (int(d.Month())-1)/3 + 1,
			Month:     int(d.Month()),
			Week:      week,
			Day:       d.Day(),
			Weekday:   d.Weekday().String(),
			IsWeekend: d.Weekday() == time.Saturday || d.Weekday() == time.Sunday,
			Semester:  SemesterLabel(d),
		})
	}

	return &Dimensions{
		Dates: dates,
		Departments: []Department{
			{ID: 1, Name: "Computer Science", Budget: 500000, Location: "Building A"},
			{ID: 2, Name: "Finance", Budget: 300000, Location: "Building B"},
			{ID: 3, Name: "Mathematics", Budget: 250000, Location: "Building C"},
		},
		Accounts: []Account{
			{ID: 1, Code: "AC1", Name: "Tuition Income", Type: "Revenue", Category: "Tuition"},
			{ID: 2, Code: "AC2", Name: "Office Supplies", Type: "Expense", Category: "Supplies"},
		},
		Vendors: []Vendor{
			{ID: 1, Name: "Acme Supplies", Type: "Supplies", ContactPerson: "Jane Doe",
				Phone: "555-0100", Email: "jane@acme.com"},
		},
		Courses: []Course{
			{ID: 1, Code: "CS101", Name: "Intro to Programming", Department: "Computer Science",
				CreditHours: 3, Level: "Introductory"},
			{ID: 2, Code: "CS450", Name: "Compilers", Department: "Computer Science",
				CreditHours: 4, Level: "Advanced"},
		},
		Students: []Student{
			{ID: 1, FirstName: "Alice", LastName: "Smith", Gender: "F",
				BirthDate: time.Date(2004, 3, 1, 0, 0, 0, 0, time.UTC),
				AdmissionYear: 2022, Program: "BS Computer Science",
				City: "Boston", Country: "USA", Age: 22},
			{ID: 2, FirstName: "Bob", LastName: "O'Brien", Gender: "M",
				BirthDate: time.Date(2002, 7, 9, 0, 0, 0, 0, time.UTC),
				AdmissionYear: 2021, Program: "BS Mathematics",
				City: "Chicago", Country: "USA", Age: 24},
		},
		Employees: []Employee{
			{ID: 1, FirstName: "Anna", LastName: "Taylor", Email: "anna@uni.edu",
				Phone: "555-0200", HireDate: time.Date(2016, 8, 31, 0, 0, 0, 0, time.UTC),
				JobTitle: "Professor", Salary: 95000, DepartmentID: 1,
				EmploymentType: "Full-Time", BenefitsEligible: true, TenureYears: 10},
			{ID: 2, FirstName: "Ben", LastName: "King", Email: "ben@uni.edu",
				Phone: "555-0201", HireDate: time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
				JobTitle: "Lecturer", Salary: 52000, DepartmentID: 99, // repaired at load
				EmploymentType: "Full-Time", TenureYears: 3.6},
		},
	}
}

func TestRebuildLoadAndSynthesize(t *testing.T) {
	baseConnStr := testutil.SkipIfNoPostgres(t)
	connStr := testutil.CreateTestDB(t, baseConnStr, "etl")
	cleanup := testutil.NewTestCleanup(t, baseConnStr, testutil.GetDBNameFromConnStr(connStr))
	defer cleanup.Cleanup()

	pool := testutil.ConnectTestDB(t, connStr)
	cleanup.SetPool(pool)
	ctx := context.Background()

	if err := RebuildSchema(ctx, pool); err != nil {
		t.Fatalf("RebuildSchema: %v", err)
	}
	// Rebuilding on top of an existing schema must succeed too.
	if err := RebuildSchema(ctx, pool); err != nil {
		t.Fatalf("second RebuildSchema: %v", err)
	}

	faker := datagen.NewFakerWithSeed(1)
	dims := integrationDims()
	loader := NewLoader(pool, NewRandomRepair(faker))
	if err := loader.Load(ctx, dims); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// The employee pointing at department 99 must have been reassigned
	// to a persisted department.
	var deptID int
	err := pool.QueryRow(ctx,
		"SELECT department_id FROM dim_employee WHERE employee_id = 2").Scan(&deptID)
	if err != nil {
		t.Fatalf("query employee: %v", err)
	}
	if deptID != 1 && deptID != 2 && deptID != 3 {
		t.Errorf("employee department = %d, want a persisted department id", deptID)
	}

	syn := NewSynthesizer(pool, faker, SynthesisConfig{
		AcademicSamples: 50,
		FinanceRecords:  200,
		Now:             time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	if err := syn.Run(ctx); err != nil {
		t.Fatalf("Synthesizer.Run: %v", err)
	}

	counts, err := TableCounts(ctx, pool)
	if err != nil {
		t.Fatalf("TableCounts: %v", err)
	}
	if counts[TableDate] != 730 {
		t.Errorf("dim_date rows = %d, want 730", counts[TableDate])
	}
	if counts[TableStudent] != 2 || counts[TableEmployee] != 2 {
		t.Errorf("dimension counts = %v", counts)
	}
	if counts[TableAcademics] == 0 || counts[TableHRMetrics] == 0 {
		t.Errorf("fact tables empty: %v", counts)
	}
	if counts[TableFinance] != 200 {
		t.Errorf("fact_finance rows = %d, want 200", counts[TableFinance])
	}

	// Fact values respect their generation bands end to end.
	var lo, hi float64
	if err := pool.QueryRow(ctx,
		"SELECT MIN(grade), MAX(grade) FROM fact_academics").Scan(&lo, &hi); err != nil {
		t.Fatalf("query grades: %v", err)
	}
	if lo < 0 || hi > 100 {
		t.Errorf("grades outside [0, 100]: min %v max %v", lo, hi)
	}
	if err := pool.QueryRow(ctx,
		"SELECT MIN(performance_rating), MAX(performance_rating) FROM fact_hr_metrics").Scan(&lo, &hi); err != nil {
		t.Fatalf("query ratings: %v", err)
	}
	if lo < 1 || hi > 5 {
		t.Errorf("ratings outside [1, 5]: min %v max %v", lo, hi)
	}

	var badTypes int
	if err := pool.QueryRow(ctx, `
        SELECT COUNT(*) FROM fact_finance ff
        JOIN dim_account a ON a.account_id = ff.account_id
        WHERE (a.account_type = 'Expense') <> (ff.transaction_type = 'Expense')`).Scan(&badTypes); err != nil {
		t.Fatalf("query transaction types: %v", err)
	}
	if badTypes != 0 {
		t.Errorf("%d finance rows violate the account-type rule", badTypes)
	}
}

func TestReportQueries(t *testing.T) {
	baseConnStr := testutil.SkipIfNoPostgres(t)
	connStr := testutil.CreateTestDB(t, baseConnStr, "report")
	cleanup := testutil.NewTestCleanup(t, baseConnStr, testutil.GetDBNameFromConnStr(connStr))
	defer cleanup.Cleanup()

	pool := testutil.ConnectTestDB(t, connStr)
	cleanup.SetPool(pool)
	ctx := context.Background()

	if err := RebuildSchema(ctx, pool); err != nil {
		t.Fatalf("RebuildSchema: %v", err)
	}

	faker := datagen.NewFakerWithSeed(2)
	dims := integrationDims()
	dims.Employees[1].DepartmentID = 2
	if err := NewLoader(pool, NewRandomRepair(faker)).Load(ctx, dims); err != nil {
		t.Fatalf("Load: %v", err)
	}
	syn := NewSynthesizer(pool, faker, SynthesisConfig{
		AcademicSamples: 50,
		FinanceRecords:  100,
		Now:             time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	if err := syn.Run(ctx); err != nil {
		t.Fatalf("Synthesizer.Run: %v", err)
	}

	enrollment, err := EnrollmentByProgram(ctx, pool)
	if err != nil {
		t.Fatalf("EnrollmentByProgram: %v", err)
	}
	if len(enrollment) != 2 {
		t.Errorf("got %d programs, want 2", len(enrollment))
	}

	payroll, err := PayrollByDepartment(ctx, pool)
	if err != nil {
		t.Fatalf("PayrollByDepartment: %v", err)
	}
	var headcount int
	for _, p := range payroll {
		headcount += p.Headcount
	}
	if headcount != 2 {
		t.Errorf("total headcount = %d, want 2", headcount)
	}

	finance, err := RevenueVsExpense(ctx, pool)
	if err != nil {
		t.Fatalf("RevenueVsExpense: %v", err)
	}
	for _, f := range finance {
		if f.Total <= 0 || f.Transactions <= 0 {
			t.Errorf("empty finance summary: %+v", f)
		}
	}

	spend, err := BudgetVsActual(ctx, pool)
	if err != nil {
		t.Fatalf("BudgetVsActual: %v", err)
	}
	if len(spend) != 3 {
		t.Errorf("got %d departments, want 3", len(spend))
	}

	grades, err := GradesBySemester(ctx, pool)
	if err != nil {
		t.Fatalf("GradesBySemester: %v", err)
	}
	for _, g := range grades {
		if g.AvgGrade < 0 || g.AvgGrade > 100 {
			t.Errorf("semester %s avg grade %v out of range", g.Semester, g.AvgGrade)
		}
	}

	instructors, err := TopInstructors(ctx, pool, 5)
	if err != nil {
		t.Fatalf("TopInstructors: %v", err)
	}
	if len(instructors) == 0 {
		t.Error("no instructors reported")
	}
}

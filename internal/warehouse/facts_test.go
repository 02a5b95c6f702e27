package warehouse

import (
	"strings"
	"testing"
	"time"

	"github.com/campusmetrics/unidwh/internal/datagen"
)

func testDims() *Dimensions {
	dates := []DateDim{}
	for _, d := range []time.Time{
		time.Date(2019, 6, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 8, 0, 0, 0, 0, time.UTC),
	} {
		dates = append(dates, DateDim{
			Key:   EncodeDateKey(d),
			Date:  d,
			Year:  d.Year(),
			Month: int(d.Month()),
		})
	}
	return &Dimensions{
		Dates: dates,
		Departments: []Department{
			{ID: 1, Name: "Computer Science"},
			{ID: 2, Name: "Finance"},
		},
		Accounts: []Account{
			{ID: 1, Code: "AC1", Type: "Revenue", Category: "Tuition"},
			{ID: 2, Code: "AC2", Type: "Expense", Category: "Supplies"},
			{ID: 3, Code: "AC3", Type: "Asset", Category: "Equipment"},
		},
		Vendors: []Vendor{{ID: 1, Name: "Acme"}},
		Courses: []Course{
			{ID: 1, Code: "CS101", CreditHours: 3, Level: "Introductory"},
			{ID: 2, Code: "CS450", CreditHours: 4, Level: "Advanced"},
		},
		Students: []Student{
			{ID: 1, Age: 20},
			{ID: 2, Age: 30},
			{ID: 3, Age: 22},
		},
		Employees: []Employee{
			{ID: 1, JobTitle: "Professor", Salary: 95000, DepartmentID: 1, TenureYears: 8},
			{ID: 2, JobTitle: "IT Support", Salary: 50000, DepartmentID: 2, TenureYears: 2},
		},
	}
}

func newTestSynthesizer(cfg SynthesisConfig) *Synthesizer {
	if cfg.Now.IsZero() {
		cfg.Now = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	}
	return &Synthesizer{
		faker:     datagen.NewFakerWithSeed(42),
		cfg:       cfg,
		batchSize: defaultBatchSize,
	}
}

func TestAcademicFacts(t *testing.T) {
	dims := testDims()
	s := newTestSynthesizer(SynthesisConfig{AcademicSamples: 100})
	facts := s.AcademicFacts(dims)

	if len(facts) == 0 || len(facts) > len(dims.Students) {
		t.Fatalf("got %d facts, want 1..%d after de-duplication", len(facts), len(dims.Students))
	}

	seen := make(map[int]bool)
	for _, f := range facts {
		if seen[f.StudentID] {
			t.Errorf("student %d sampled twice", f.StudentID)
		}
		seen[f.StudentID] = true

		if f.Grade < 0 || f.Grade > 100 {
			t.Errorf("grade %v out of [0, 100]", f.Grade)
		}
		if f.AttendancePercent < 60 || f.AttendancePercent > 100 {
			t.Errorf("attendance %v out of [60, 100]", f.AttendancePercent)
		}
		// Fee is credits x 250, optionally discounted 20%.
		valid := false
		for _, c := range dims.Courses {
			if c.ID != f.CourseID {
				continue
			}
			full := float64(c.CreditHours) * 250
			if f.FeePaid == full || f.FeePaid == full*0.8 {
				valid = true
			}
		}
		if !valid {
			t.Errorf("fee %v does not match any course fee schedule", f.FeePaid)
		}
	}
}

func TestAcademicFactsInstructorPreference(t *testing.T) {
	dims := testDims()
	s := newTestSynthesizer(SynthesisConfig{AcademicSamples: 200})
	for _, f := range s.AcademicFacts(dims) {
		if f.EmployeeID != 1 {
			t.Errorf("instructor %d is not a teaching employee", f.EmployeeID)
		}
	}
}

func TestAcademicFactsInstructorFallback(t *testing.T) {
	dims := testDims()
	// No teaching titles at all: any employee may instruct.
	for i := range dims.Employees {
		dims.Employees[i].JobTitle = "Administrative Assistant"
	}
	s := newTestSynthesizer(SynthesisConfig{AcademicSamples: 50})
	facts := s.AcademicFacts(dims)
	if len(facts) == 0 {
		t.Fatal("no facts generated")
	}
	for _, f := range facts {
		if f.EmployeeID != 1 && f.EmployeeID != 2 {
			t.Errorf("unknown instructor %d", f.EmployeeID)
		}
	}
}

func TestHRFacts(t *testing.T) {
	dims := testDims()
	s := newTestSynthesizer(SynthesisConfig{})
	facts := s.HRFacts(dims)

	if len(facts) == 0 {
		t.Fatal("no HR facts generated")
	}

	perEmployee := make(map[int]int)
	for _, f := range facts {
		perEmployee[f.EmployeeID]++
		if f.PerformanceRating < 1 || f.PerformanceRating > 5 {
			t.Errorf("rating %v out of [1, 5]", f.PerformanceRating)
		}
		if f.OvertimeHours < 0 || f.OvertimeHours > 10 {
			t.Errorf("overtime %v out of [0, 10]", f.OvertimeHours)
		}
		if f.LeaveDaysTaken < 0 || f.LeaveDaysTaken > 8 {
			t.Errorf("leave days %d out of [0, 8]", f.LeaveDaysTaken)
		}

		var emp Employee
		for _, e := range dims.Employees {
			if e.ID == f.EmployeeID {
				emp = e
			}
		}
		if f.SalaryAmount != emp.Salary {
			t.Errorf("salary_amount %v != employee salary %v", f.SalaryAmount, emp.Salary)
		}
		if f.DepartmentID != emp.DepartmentID {
			t.Errorf("department %d != employee department %d", f.DepartmentID, emp.DepartmentID)
		}

		// Snapshots land on quarter-end months within the window.
		d := DecodeDateKey(f.DateKey)
		if m := int(d.Month()); m != 3 && m != 6 && m != 9 && m != 12 {
			t.Errorf("snapshot month %d is not quarterly", m)
		}
	}

	for id, n := range perEmployee {
		if n > 8 {
			t.Errorf("employee %d has %d snapshots, want at most 8", id, n)
		}
	}
}

func TestHRFactsQuarterlyFallback(t *testing.T) {
	dims := testDims()
	// Push every date outside the two-year window; the fallback samples
	// from the full calendar instead.
	old := time.Date(2010, 1, 15, 0, 0, 0, 0, time.UTC)
	for i := range dims.Dates {
		d := old.AddDate(0, i, 0)
		dims.Dates[i] = DateDim{Key: EncodeDateKey(d), Date: d, Year: d.Year(), Month: int(d.Month())}
	}

	s := newTestSynthesizer(SynthesisConfig{})
	facts := s.HRFacts(dims)
	if len(facts) == 0 {
		t.Fatal("fallback produced no facts")
	}
	perEmployee := make(map[int]int)
	for _, f := range facts {
		perEmployee[f.EmployeeID]++
	}
	for id, n := range perEmployee {
		if n > 4 {
			t.Errorf("employee %d has %d fallback snapshots, want at most 4", id, n)
		}
	}
}

func TestFinanceFacts(t *testing.T) {
	dims := testDims()
	s := newTestSynthesizer(SynthesisConfig{FinanceRecords: 300})
	facts := s.FinanceFacts(dims)

	if len(facts) != 300 {
		t.Fatalf("got %d facts, want 300", len(facts))
	}

	accountType := map[int]string{}
	for _, a := range dims.Accounts {
		accountType[a.ID] = a.Type
	}
	deptName := map[int]string{}
	for _, d := range dims.Departments {
		deptName[d.ID] = d.Name
	}

	for _, f := range facts {
		// Expense rows come from Expense accounts, everything else is
		// Revenue.
		want := "Revenue"
		if accountType[f.AccountID] == "Expense" {
			want = "Expense"
		}
		if f.TransactionType != want {
			t.Errorf("account %d (%s) produced %s transaction",
				f.AccountID, accountType[f.AccountID], f.TransactionType)
		}

		limit := 50000.0
		if f.TransactionType == "Expense" {
			limit = 20000.0
		}
		if deptName[f.DepartmentID] == "Finance" || deptName[f.DepartmentID] == "Administration" {
			limit *= 1.5
		}
		if f.Amount <= 0 || f.Amount > limit {
			t.Errorf("%s amount %v out of range (limit %v)", f.TransactionType, f.Amount, limit)
		}

		if !strings.HasPrefix(f.ReferenceNumber, "REF") || len(f.ReferenceNumber) != 8 {
			t.Errorf("reference number %q malformed", f.ReferenceNumber)
		}
		if !strings.Contains(f.Description, f.TransactionType) {
			t.Errorf("description %q missing transaction type", f.Description)
		}

		// Recent dates exist in the fixture, so nothing lands before 2020.
		if DecodeDateKey(f.DateKey).Year() < 2020 {
			t.Errorf("transaction dated %d despite recent dates being available", f.DateKey)
		}
	}
}

func TestSampleDates(t *testing.T) {
	dims := testDims()
	s := newTestSynthesizer(SynthesisConfig{})

	sample := s.sampleDates(dims.Dates, 3)
	if len(sample) != 3 {
		t.Fatalf("got %d dates, want 3", len(sample))
	}
	seen := make(map[int]bool)
	for _, d := range sample {
		if seen[d.Key] {
			t.Errorf("date %d sampled twice", d.Key)
		}
		seen[d.Key] = true
	}

	all := s.sampleDates(dims.Dates, 100)
	if len(all) != len(dims.Dates) {
		t.Errorf("oversized sample returned %d dates, want %d", len(all), len(dims.Dates))
	}
}

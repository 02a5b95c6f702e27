package warehouse

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/campusmetrics/unidwh/internal/datagen"
	"github.com/campusmetrics/unidwh/internal/logging"
)

// RepairPolicy supplies replacement values when a source value falls
// outside its acceptable band or references a missing row. The production
// policy draws uniformly from the band; tests can substitute a
// deterministic policy. Replacement masks upstream data-quality defects
// rather than rejecting them, which is the warehouse's contract.
type RepairPolicy interface {
	// IntInBand returns a replacement integer in [lo, hi].
	IntInBand(lo, hi int) int

	// FloatInBand returns a replacement float in [lo, hi].
	FloatInBand(lo, hi float64) float64

	// PickID returns a replacement id from the valid set.
	PickID(ids []int) int
}

// RandomRepair is the production repair policy: uniform random draws.
type RandomRepair struct {
	faker *datagen.Faker
}

// NewRandomRepair creates a RandomRepair backed by the given faker.
func NewRandomRepair(f *datagen.Faker) *RandomRepair {
	return &RandomRepair{faker: f}
}

func (r *RandomRepair) IntInBand(lo, hi int) int {
	return r.faker.Int(lo, hi)
}

func (r *RandomRepair) FloatInBand(lo, hi float64) float64 {
	return r.faker.Float64(lo, hi)
}

func (r *RandomRepair) PickID(ids []int) int {
	return datagen.Choose(r.faker, ids)
}

// salaryBands maps job titles to acceptable salary ranges. Values outside
// the band for their title are replaced via the repair policy.
var salaryBands = map[string][2]float64{
	"Professor":                {70000, 120000},
	"Associate Professor":      {60000, 90000},
	"Assistant Professor":      {50000, 75000},
	"Lecturer":                 {40000, 60000},
	"HR Manager":               {55000, 80000},
	"Finance Officer":          {45000, 70000},
	"Department Head":          {80000, 130000},
	"Administrative Assistant": {35000, 50000},
	"IT Support":               {40000, 65000},
	"Research Assistant":       {30000, 45000},
}

var defaultSalaryBand = [2]float64{30000, 120000}

// SalaryBand returns the acceptable salary range for a job title, falling
// back to the default band for unrecognized titles.
func SalaryBand(jobTitle string) (float64, float64) {
	if band, ok := salaryBands[jobTitle]; ok {
		return band[0], band[1]
	}
	return defaultSalaryBand[0], defaultSalaryBand[1]
}

// programMapping normalizes abbreviated program names.
var programMapping = map[string]string{
	"BS Software Eng": "BS Software Engineering",
	"BS Electrical":   "BS Electrical Engineering",
}

// Transformer cleans the raw dimension tables into load-ready form.
type Transformer struct {
	repair RepairPolicy
	now    time.Time
}

// NewTransformer creates a Transformer. now anchors the age, tenure, and
// admission-year rules so tests can pin the clock.
func NewTransformer(repair RepairPolicy, now time.Time) *Transformer {
	return &Transformer{repair: repair, now: now}
}

// Transform applies the per-table cleaning rules and returns the cleaned
// dimension set. Referential-integrity and range violations are repaired,
// never rejected; rows are only dropped by the age filter, by
// de-duplication, and when a dim_date row has no parsable date.
func (t *Transformer) Transform(raw *RawDimensions) *Dimensions {
	validManagerIDs := make(map[int]bool, len(raw.Employees)+1)
	validManagerIDs[0] = true
	for _, e := range raw.Employees {
		validManagerIDs[e.ID] = true
	}

	validDeptIDs := make(map[int]bool, len(raw.Departments))
	deptIDList := make([]int, 0, len(raw.Departments))
	for _, d := range raw.Departments {
		if !validDeptIDs[d.ID] {
			deptIDList = append(deptIDList, d.ID)
		}
		validDeptIDs[d.ID] = true
	}

	dims := &Dimensions{
		Dates:       t.transformDates(raw.Dates),
		Departments: t.transformDepartments(raw.Departments, validManagerIDs),
		Accounts:    t.transformAccounts(raw.Accounts),
		Vendors:     t.transformVendors(raw.Vendors),
		Courses:     t.transformCourses(raw.Courses),
		Students:    t.transformStudents(raw.Students),
		Employees:   t.transformEmployees(raw.Employees, validDeptIDs, deptIDList),
	}

	logging.Info().
		Int("dates", len(dims.Dates)).
		Int("departments", len(dims.Departments)).
		Int("accounts", len(dims.Accounts)).
		Int("vendors", len(dims.Vendors)).
		Int("courses", len(dims.Courses)).
		Int("students", len(dims.Students)).
		Int("employees", len(dims.Employees)).
		Msg("Transformed dimensions")

	return dims
}

func (t *Transformer) transformDepartments(raw []RawDepartment, validManagers map[int]bool) []Department {
	out := make([]Department, 0, len(raw))
	for _, r := range raw {
		managerID, err := strconv.Atoi(strings.TrimSpace(r.ManagerID))
		if err != nil || !validManagers[managerID] {
			if err == nil {
				logging.Warn().
					Int("department_id", r.ID).
					Int("manager_id", managerID).
					Msg("Department manager does not exist, cleared")
			}
			managerID = 0
		}
		budget, _ := strconv.ParseFloat(strings.TrimSpace(r.Budget), 64)
		out = append(out, Department{
			ID:        r.ID,
			Name:      strings.TrimSpace(r.Name),
			ManagerID: managerID,
			Budget:    budget,
			Location:  strings.TrimSpace(r.Location),
		})
	}
	return out
}

func (t *Transformer) transformStudents(raw []RawStudent) []Student {
	currentYear := t.now.Year()
	out := make([]Student, 0, len(raw))
	seen := make(map[int]bool, len(raw))

	for _, r := range raw {
		birth, birthOK := ParseDate(r.BirthDate)
		age := 0
		if birthOK {
			age = int(t.now.Sub(birth).Hours() / 24 / 365.25)
		}
		// Out-of-range ages indicate bad birth dates; those rows are
		// dropped rather than repaired.
		if age < 16 || age > 60 {
			continue
		}
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true

		admYear, err := strconv.Atoi(strings.TrimSpace(r.AdmissionYear))
		if err != nil || admYear < 2000 || admYear > currentYear {
			admYear = t.repair.IntInBand(2019, currentYear)
		}

		program := strings.TrimSpace(r.Program)
		if mapped, ok := programMapping[program]; ok {
			program = mapped
		}

		created, _ := ParseDate(r.CreatedAt)

		out = append(out, Student{
			ID:            r.ID,
			FirstName:     titleCase(r.FirstName),
			LastName:      titleCase(r.LastName),
			Gender:        strings.TrimSpace(r.Gender),
			BirthDate:     birth,
			AdmissionYear: admYear,
			Program:       program,
			City:          titleCase(r.City),
			Country:       titleCase(r.Country),
			CreatedAt:     created,
			Age:           age,
		})
	}
	return out
}

func (t *Transformer) transformEmployees(raw []RawEmployee, validDepts map[int]bool, deptIDs []int) []Employee {
	out := make([]Employee, 0, len(raw))
	seen := make(map[int]bool, len(raw))

	for _, r := range raw {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true

		managerID, err := strconv.Atoi(strings.TrimSpace(r.ManagerID))
		if err != nil {
			managerID = 0
		}

		deptID, err := strconv.Atoi(strings.TrimSpace(r.DepartmentID))
		if (err != nil || !validDepts[deptID]) && len(deptIDs) > 0 {
			replacement := t.repair.PickID(deptIDs)
			logging.Warn().
				Int("employee_id", r.ID).
				Str("department_id", r.DepartmentID).
				Int("replacement", replacement).
				Msg("Employee references unknown department, reassigned")
			deptID = replacement
		}

		hire, hireOK := ParseDate(r.HireDate)
		tenure := 0.0
		if hireOK {
			tenure = math.Round(t.now.Sub(hire).Hours()/24/365.25*10) / 10
		}

		jobTitle := strings.TrimSpace(r.JobTitle)
		lo, hi := SalaryBand(jobTitle)
		salary, err := strconv.ParseFloat(strings.TrimSpace(r.Salary), 64)
		if err != nil {
			salary = t.repair.FloatInBand(defaultSalaryBand[0], defaultSalaryBand[1])
		}
		if salary < lo || salary > hi {
			salary = t.repair.FloatInBand(lo, hi)
		}
		salary = math.Round(salary*100) / 100

		benefits, _ := strconv.ParseBool(strings.ToLower(strings.TrimSpace(r.BenefitsEligible)))

		out = append(out, Employee{
			ID:               r.ID,
			FirstName:        titleCase(r.FirstName),
			LastName:         titleCase(r.LastName),
			Email:            strings.ToLower(strings.TrimSpace(r.Email)),
			Phone:            strings.TrimSpace(r.Phone),
			HireDate:         hire,
			JobTitle:         jobTitle,
			Salary:           salary,
			DepartmentID:     deptID,
			ManagerID:        managerID,
			EmploymentType:   strings.TrimSpace(r.EmploymentType),
			BenefitsEligible: benefits,
			TenureYears:      tenure,
		})
	}
	return out
}

func (t *Transformer) transformCourses(raw []RawCourse) []Course {
	out := make([]Course, 0, len(raw))
	seen := make(map[int]bool, len(raw))

	for _, r := range raw {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true

		code := strings.ToUpper(strings.TrimSpace(r.Code))
		credits, err := strconv.Atoi(strings.TrimSpace(r.CreditHours))
		if err != nil || credits < 2 || credits > 4 {
			credits = t.repair.IntInBand(2, 4)
		}

		out = append(out, Course{
			ID:          r.ID,
			Code:        code,
			Name:        strings.TrimSpace(r.Name),
			Department:  strings.TrimSpace(r.Department),
			CreditHours: credits,
			Level:       CourseLevel(code),
		})
	}
	return out
}

func (t *Transformer) transformAccounts(raw []RawAccount) []Account {
	out := make([]Account, 0, len(raw))
	for _, r := range raw {
		accType := strings.TrimSpace(r.Type)
		valid := false
		for _, v := range ValidAccountTypes {
			if accType == v {
				valid = true
				break
			}
		}
		if !valid {
			accType = "Expense"
		}
		out = append(out, Account{
			ID:       r.ID,
			Code:     strings.TrimSpace(r.Code),
			Name:     strings.TrimSpace(r.Name),
			Type:     accType,
			Category: strings.TrimSpace(r.Category),
		})
	}
	return out
}

func (t *Transformer) transformVendors(raw []RawVendor) []Vendor {
	out := make([]Vendor, 0, len(raw))
	for _, r := range raw {
		out = append(out, Vendor{
			ID:            r.ID,
			Name:          titleCase(r.Name),
			Type:          strings.TrimSpace(r.Type),
			ContactPerson: titleCase(r.ContactPerson),
			Phone:         strings.TrimSpace(r.Phone),
			Email:         strings.ToLower(strings.TrimSpace(r.Email)),
		})
	}
	return out
}

func (t *Transformer) transformDates(raw []RawDate) []DateDim {
	out := make([]DateDim, 0, len(raw))
	for _, r := range raw {
		d, ok := ParseDate(r.Date)
		if !ok {
			logging.Warn().
				Str("date", r.Date).
				Msg("Unparsable calendar date, row dropped")
			continue
		}
		_, week := d.ISOWeek()
		out = append(out, DateDim{
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
	return out
}

// titleCase trims and title-cases a string: the first letter of every word
// is upper-cased, the rest lower-cased. A letter starts a word when it
// follows a non-letter, so hyphenated and apostrophized names work.
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}

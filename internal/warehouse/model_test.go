package warehouse

import (
	"testing"
	"time"
)

func TestDateKeyRoundTrip(t *testing.T) {
	dates := []time.Time{
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		key := EncodeDateKey(d)
		back := DecodeDateKey(key)
		if !back.Equal(d) {
			t.Errorf("DecodeDateKey(EncodeDateKey(%v)) = %v", d, back)
		}
	}

	if key := EncodeDateKey(time.Date(2023, 7, 4, 0, 0, 0, 0, time.UTC)); key != 20230704 {
		t.Errorf("EncodeDateKey = %d, want 20230704", key)
	}
}

func TestCourseLevel(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"CS101", "Introductory"},
		{"CS199", "Introductory"},
		{"CS200", "Intermediate"},
		{"CS305", "Intermediate"},
		{"CS400", "Advanced"},
		{"CS450", "Advanced"},
		{"MATH50", "Introductory"},
		{"XYZ", "Unknown"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		if got := CourseLevel(tt.code); got != tt.want {
			t.Errorf("CourseLevel(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2023-05-15", time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC), true},
		{"2023-05-15 10:30:00", time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC), true},
		{"05/15/2023", time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC), true},
		{"2023-05-15T10:30:00Z", time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"not-a-date", time.Time{}, false},
		{"15-05-2023", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSemesterLabel(t *testing.T) {
	tests := []struct {
		month time.Month
		want  string
	}{
		{time.January, "Spring 2024"},
		{time.April, "Spring 2024"},
		{time.May, "Summer 2024"},
		{time.August, "Summer 2024"},
		{time.September, "Fall 2024"},
		{time.December, "Fall 2024"},
	}
	for _, tt := range tests {
		d := time.Date(2024, tt.month, 15, 0, 0, 0, 0, time.UTC)
		if got := SemesterLabel(d); got != tt.want {
			t.Errorf("SemesterLabel(%v) = %q, want %q", d, got, tt.want)
		}
	}
}

func TestIsWarehouseTable(t *testing.T) {
	for _, table := range AllTables {
		if !IsWarehouseTable(table) {
			t.Errorf("IsWarehouseTable(%q) = false", table)
		}
	}
	for _, name := range []string{"dim_bogus", "pg_catalog", "", "students"} {
		if IsWarehouseTable(name) {
			t.Errorf("IsWarehouseTable(%q) = true", name)
		}
	}
}

func TestDimensionTableOrder(t *testing.T) {
	// Employees reference departments, so departments must load first.
	deptIdx, empIdx := -1, -1
	for i, table := range DimensionTables {
		switch table {
		case TableDepartment:
			deptIdx = i
		case TableEmployee:
			empIdx = i
		}
	}
	if deptIdx == -1 || empIdx == -1 || deptIdx > empIdx {
		t.Errorf("load order %v does not place departments before employees", DimensionTables)
	}
	if DimensionTables[0] != TableDate {
		t.Errorf("load order %v does not start with dim_date", DimensionTables)
	}
	if len(AllTables) != 10 {
		t.Errorf("AllTables has %d entries, want 10", len(AllTables))
	}
}

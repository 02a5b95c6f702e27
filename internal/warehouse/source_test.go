package warehouse

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func writeTestDimensions(t *testing.T, dir string) {
	t.Helper()
	writeTestCSV(t, dir, "dim_date.csv",
		"date_key,date\n20240101,2024-01-01\n20240102,2024-01-02\n")
	writeTestCSV(t, dir, "dim_department.csv",
		"department_id,department_name,manager_id,budget,location\n1,Finance,,100000,Building A\n")
	writeTestCSV(t, dir, "dim_account.csv",
		"account_id,account_code,account_name,account_type,category\n1,AC1,Tuition,Revenue,Tuition\n")
	writeTestCSV(t, dir, "dim_vendor.csv",
		"vendor_id,vendor_name,vendor_type,contact_person,phone,email\n1,Acme,Supplies,Jane Doe,555-0100,jane@acme.com\n")
	writeTestCSV(t, dir, "dim_course.csv",
		"course_id,course_code,course_name,department,credit_hours\n1,CS101,Intro,Computer Science,3\n")
	writeTestCSV(t, dir, "dim_student.csv",
		"student_id,first_name,last_name,gender,birth_date,admission_year,program,city,country,created_at\n"+
			"1,Alice,Smith,F,2004-03-01,2022,BS Computer Science,Boston,USA,2022-09-01\n")
	writeTestCSV(t, dir, "dim_employee.csv",
		"employee_id,first_name,last_name,email,phone,hire_date,job_title,salary,department_id,manager_id,employment_type,benefits_eligible\n"+
			"1,Anna,Taylor,anna@uni.edu,555-0200,2016-08-31,Professor,95000,1,0,Full-Time,true\n")
}

func TestReadDimensions(t *testing.T) {
	dir := t.TempDir()
	writeTestDimensions(t, dir)

	raw, err := ReadDimensions(dir)
	if err != nil {
		t.Fatalf("ReadDimensions: %v", err)
	}

	if len(raw.Dates) != 2 || raw.Dates[0].Date != "2024-01-01" {
		t.Errorf("dates = %+v", raw.Dates)
	}
	if len(raw.Departments) != 1 || raw.Departments[0].Name != "Finance" {
		t.Errorf("departments = %+v", raw.Departments)
	}
	if raw.Students[0].ID != 1 || raw.Students[0].AdmissionYear != "2022" {
		t.Errorf("students = %+v", raw.Students)
	}
	if raw.Employees[0].Salary != "95000" || raw.Employees[0].DepartmentID != "1" {
		t.Errorf("employees = %+v", raw.Employees)
	}
	if raw.Courses[0].CreditHours != "3" {
		t.Errorf("courses = %+v", raw.Courses)
	}
}

func TestReadDimensionsColumnOrder(t *testing.T) {
	// Columns are located by header name, not position.
	dir := t.TempDir()
	writeTestDimensions(t, dir)
	writeTestCSV(t, dir, "dim_account.csv",
		"category,account_type,account_name,account_code,account_id\nTuition,Revenue,Tuition Income,AC1,7\n")

	raw, err := ReadDimensions(dir)
	if err != nil {
		t.Fatalf("ReadDimensions: %v", err)
	}
	a := raw.Accounts[0]
	if a.ID != 7 || a.Code != "AC1" || a.Type != "Revenue" {
		t.Errorf("account = %+v", a)
	}
}

func TestReadDimensionsMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeTestDimensions(t, dir)
	os.Remove(filepath.Join(dir, "dim_vendor.csv"))

	if _, err := ReadDimensions(dir); err == nil {
		t.Fatal("expected error for missing dimension file")
	}
}

func TestReadDimensionsBadID(t *testing.T) {
	dir := t.TempDir()
	writeTestDimensions(t, dir)
	writeTestCSV(t, dir, "dim_course.csv",
		"course_id,course_code,course_name,department,credit_hours\nnotanint,CS101,Intro,CS,3\n")

	if _, err := ReadDimensions(dir); err == nil {
		t.Fatal("expected error for non-integer id column")
	}
}

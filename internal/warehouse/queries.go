package warehouse

import (
	"context"

	"github.com/campusmetrics/unidwh/internal/db"
)

// ProgramEnrollment is a per-program student count.
type ProgramEnrollment struct {
	Program  string
	Students int
}

// SemesterGrade is the average grade and record count for one semester.
type SemesterGrade struct {
	Semester string
	AvgGrade float64
	Records  int
}

// DepartmentPayroll summarizes headcount and pay by department.
type DepartmentPayroll struct {
	Department string
	Headcount  int
	AvgSalary  float64
}

// FinanceSummary is the revenue and expense totals for one transaction type.
type FinanceSummary struct {
	TransactionType string
	Total           float64
	Transactions    int
}

// DepartmentSpend compares a department's budget against its actual expenses.
type DepartmentSpend struct {
	Department string
	Budget     float64
	Expenses   float64
}

// InstructorLoad is the teaching volume and outcome for one instructor.
type InstructorLoad struct {
	Instructor string
	Records    int
	AvgGrade   float64
}

// EnrollmentByProgram returns student counts per program, largest first.
func EnrollmentByProgram(ctx context.Context, conn db.DB) ([]ProgramEnrollment, error) {
	rows, err := conn.Query(ctx, `
        SELECT program, COUNT(*) AS students
        FROM dim_student
        GROUP BY program
        ORDER BY students DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProgramEnrollment
	for rows.Next() {
		var r ProgramEnrollment
		if err := rows.Scan(&r.Program, &r.Students); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GradesBySemester returns the average grade per semester in calendar order.
func GradesBySemester(ctx context.Context, conn db.DB) ([]SemesterGrade, error) {
	rows, err := conn.Query(ctx, `
        SELECT d.semester, ROUND(AVG(fa.grade)::numeric, 2), COUNT(*)
        FROM fact_academics fa
        JOIN dim_date d ON d.date_key = fa.date_key
        GROUP BY d.semester, d.year
        ORDER BY d.year, MIN(d.date_key)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SemesterGrade
	for rows.Next() {
		var r SemesterGrade
		if err := rows.Scan(&r.Semester, &r.AvgGrade, &r.Records); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PayrollByDepartment returns headcount and average salary per department.
func PayrollByDepartment(ctx context.Context, conn db.DB) ([]DepartmentPayroll, error) {
	rows, err := conn.Query(ctx, `
        SELECT dd.department_name, COUNT(e.employee_id),
               ROUND(AVG(e.salary)::numeric, 2)
        FROM dim_employee e
        JOIN dim_department dd ON dd.department_id = e.department_id
        GROUP BY dd.department_name
        ORDER BY dd.department_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DepartmentPayroll
	for rows.Next() {
		var r DepartmentPayroll
		if err := rows.Scan(&r.Department, &r.Headcount, &r.AvgSalary); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RevenueVsExpense returns overall totals per transaction type.
func RevenueVsExpense(ctx context.Context, conn db.DB) ([]FinanceSummary, error) {
	rows, err := conn.Query(ctx, `
        SELECT transaction_type, ROUND(SUM(amount)::numeric, 2), COUNT(*)
        FROM fact_finance
        GROUP BY transaction_type
        ORDER BY transaction_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FinanceSummary
	for rows.Next() {
		var r FinanceSummary
		if err := rows.Scan(&r.TransactionType, &r.Total, &r.Transactions); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// BudgetVsActual compares department budgets against realized expenses.
func BudgetVsActual(ctx context.Context, conn db.DB) ([]DepartmentSpend, error) {
	rows, err := conn.Query(ctx, `
        SELECT dd.department_name, dd.budget,
               COALESCE(ROUND(SUM(ff.amount)::numeric, 2), 0)
        FROM dim_department dd
        LEFT JOIN fact_finance ff
               ON ff.department_id = dd.department_id
              AND ff.transaction_type = 'Expense'
        GROUP BY dd.department_name, dd.budget
        ORDER BY dd.department_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DepartmentSpend
	for rows.Next() {
		var r DepartmentSpend
		if err := rows.Scan(&r.Department, &r.Budget, &r.Expenses); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopInstructors returns the busiest instructors by academic record count.
func TopInstructors(ctx context.Context, conn db.DB, limit int) ([]InstructorLoad, error) {
	rows, err := conn.Query(ctx, `
        SELECT e.first_name || ' ' || e.last_name,
               COUNT(*), ROUND(AVG(fa.grade)::numeric, 2)
        FROM fact_academics fa
        JOIN dim_employee e ON e.employee_id = fa.employee_id
        GROUP BY e.employee_id, e.first_name, e.last_name
        ORDER BY COUNT(*) DESC
        LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InstructorLoad
	for rows.Next() {
		var r InstructorLoad
		if err := rows.Scan(&r.Instructor, &r.Records, &r.AvgGrade); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TableCounts reports the row count of every warehouse table.
func TableCounts(ctx context.Context, conn db.DB) (map[string]int64, error) {
	counts := make(map[string]int64, len(AllTables))
	for _, table := range AllTables {
		var n int64
		if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, err
		}
		counts[table] = n
	}
	return counts, nil
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/campusmetrics/unidwh/internal/db"
	"github.com/campusmetrics/unidwh/internal/warehouse"
)

var reportTopN int

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print summary reports from the warehouse",
	Long: `Print summary reports from a built warehouse: enrollment by program,
grades by semester, payroll by department, revenue versus expenses,
budget versus actuals, and top instructors.

Requires a prior 'unidwh etl' run against the same database.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().IntVar(&reportTopN, "top", 5,
		"number of instructors in the top-instructors report")
}

func runReport(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := db.RequireBuilt(ctx, pool); err != nil {
		return err
	}

	counts, err := warehouse.TableCounts(ctx, pool)
	if err != nil {
		return fmt.Errorf("failed to count warehouse rows: %w", err)
	}
	cmd.Println("Warehouse contents:")
	for _, table := range warehouse.AllTables {
		cmd.Printf("  %-18s %8d rows\n", table, counts[table])
	}

	enrollment, err := warehouse.EnrollmentByProgram(ctx, pool)
	if err != nil {
		return fmt.Errorf("enrollment report failed: %w", err)
	}
	cmd.Println()
	cmd.Println("Enrollment by program:")
	for _, r := range enrollment {
		cmd.Printf("  %-30s %6d students\n", r.Program, r.Students)
	}

	grades, err := warehouse.GradesBySemester(ctx, pool)
	if err != nil {
		return fmt.Errorf("grades report failed: %w", err)
	}
	cmd.Println()
	cmd.Println("Average grade by semester:")
	for _, r := range grades {
		cmd.Printf("  %-14s %6.2f  (%d records)\n", r.Semester, r.AvgGrade, r.Records)
	}

	payroll, err := warehouse.PayrollByDepartment(ctx, pool)
	if err != nil {
		return fmt.Errorf("payroll report failed: %w", err)
	}
	cmd.Println()
	cmd.Println("Payroll by department:")
	for _, r := range payroll {
		cmd.Printf("  %-26s %4d staff  avg %10.2f\n", r.Department, r.Headcount, r.AvgSalary)
	}

	finance, err := warehouse.RevenueVsExpense(ctx, pool)
	if err != nil {
		return fmt.Errorf("finance report failed: %w", err)
	}
	cmd.Println()
	cmd.Println("Revenue vs expenses:")
	for _, r := range finance {
		cmd.Printf("  %-10s %14.2f  (%d transactions)\n", r.TransactionType, r.Total, r.Transactions)
	}

	spend, err := warehouse.BudgetVsActual(ctx, pool)
	if err != nil {
		return fmt.Errorf("budget report failed: %w", err)
	}
	cmd.Println()
	cmd.Println("Budget vs actual expenses:")
	for _, r := range spend {
		cmd.Printf("  %-26s budget %12.2f  spent %12.2f\n", r.Department, r.Budget, r.Expenses)
	}

	instructors, err := warehouse.TopInstructors(ctx, pool, reportTopN)
	if err != nil {
		return fmt.Errorf("instructor report failed: %w", err)
	}
	cmd.Println()
	cmd.Printf("Top %d instructors by record count:\n", reportTopN)
	for _, r := range instructors {
		cmd.Printf("  %-26s %5d records  avg grade %6.2f\n", r.Instructor, r.Records, r.AvgGrade)
	}

	return nil
}

package warehouse

import (
	"context"
	"fmt"

	"github.com/campusmetrics/unidwh/internal/db"
	"github.com/campusmetrics/unidwh/internal/logging"
)

// Fact tables are dropped before dimension tables (reverse dependency
// order); CASCADE covers anything referencing the dimensions. This is the
// PostgreSQL substitute for toggling foreign key checks around the drop.
const dropSchemaSQL = `
DROP TABLE IF EXISTS fact_academics CASCADE;
DROP TABLE IF EXISTS fact_hr_metrics CASCADE;
DROP TABLE IF EXISTS fact_finance CASCADE;
DROP TABLE IF EXISTS dim_employee CASCADE;
DROP TABLE IF EXISTS dim_student CASCADE;
DROP TABLE IF EXISTS dim_course CASCADE;
DROP TABLE IF EXISTS dim_department CASCADE;
DROP TABLE IF EXISTS dim_account CASCADE;
DROP TABLE IF EXISTS dim_vendor CASCADE;
DROP TABLE IF EXISTS dim_date CASCADE;
`

// Star schema: seven dimension tables, then three fact tables with foreign
// keys into the dimensions. Table and column names are a compatibility
// surface for the dashboards and must stay verbatim.
const createSchemaSQL = `
CREATE TABLE dim_date (
    date_key   INTEGER PRIMARY KEY,
    date       DATE,
    year       INTEGER,
    quarter    INTEGER,
    month      INTEGER,
    week       INTEGER,
    day        INTEGER,
    weekday    VARCHAR(10),
    is_weekend BOOLEAN,
    semester   VARCHAR(20)
);

CREATE TABLE dim_student (
    student_id     INTEGER PRIMARY KEY,
    first_name     VARCHAR(100),
    last_name      VARCHAR(100),
    gender         VARCHAR(10),
    birth_date     DATE,
    admission_year INTEGER,
    program        VARCHAR(100),
    city           VARCHAR(100),
    country        VARCHAR(100),
    created_at     DATE,
    age            INTEGER
);

CREATE TABLE dim_course (
    course_id    INTEGER PRIMARY KEY,
    course_code  VARCHAR(20),
    course_name  VARCHAR(200),
    department   VARCHAR(100),
    credit_hours INTEGER,
    course_level VARCHAR(20)
);

CREATE TABLE dim_department (
    department_id   INTEGER PRIMARY KEY,
    department_name VARCHAR(100),
    manager_id      INTEGER,
    budget          NUMERIC(15,2),
    location        VARCHAR(100)
);

CREATE TABLE dim_employee (
    employee_id       INTEGER PRIMARY KEY,
    first_name        VARCHAR(100),
    last_name         VARCHAR(100),
    email             VARCHAR(150),
    phone             VARCHAR(20),
    hire_date         DATE,
    job_title         VARCHAR(100),
    salary            NUMERIC(10,2),
    department_id     INTEGER REFERENCES dim_department(department_id),
    manager_id        INTEGER,
    employment_type   VARCHAR(50),
    benefits_eligible BOOLEAN,
    tenure_years      NUMERIC(4,1)
);

CREATE TABLE dim_account (
    account_id   INTEGER PRIMARY KEY,
    account_code VARCHAR(20),
    account_name VARCHAR(100),
    account_type VARCHAR(50),
    category     VARCHAR(50)
);

CREATE TABLE dim_vendor (
    vendor_id      INTEGER PRIMARY KEY,
    vendor_name    VARCHAR(100),
    vendor_type    VARCHAR(50),
    contact_person VARCHAR(100),
    phone          VARCHAR(20),
    email          VARCHAR(150)
);

CREATE TABLE fact_academics (
    record_id          BIGSERIAL PRIMARY KEY,
    date_key           INTEGER REFERENCES dim_date(date_key),
    student_id         INTEGER REFERENCES dim_student(student_id),
    course_id          INTEGER REFERENCES dim_course(course_id),
    employee_id        INTEGER REFERENCES dim_employee(employee_id),
    grade              NUMERIC(5,2),
    attendance_percent NUMERIC(5,2),
    fee_paid           NUMERIC(10,2),
    created_ts         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE fact_hr_metrics (
    record_id          BIGSERIAL PRIMARY KEY,
    employee_id        INTEGER REFERENCES dim_employee(employee_id),
    department_id      INTEGER REFERENCES dim_department(department_id),
    date_key           INTEGER REFERENCES dim_date(date_key),
    salary_amount      NUMERIC(10,2),
    bonus_amount       NUMERIC(10,2),
    overtime_hours     NUMERIC(5,2),
    leave_days_taken   INTEGER,
    performance_rating NUMERIC(3,2)
);

CREATE TABLE fact_finance (
    record_id        BIGSERIAL PRIMARY KEY,
    date_key         INTEGER REFERENCES dim_date(date_key),
    account_id       INTEGER REFERENCES dim_account(account_id),
    department_id    INTEGER REFERENCES dim_department(department_id),
    vendor_id        INTEGER REFERENCES dim_vendor(vendor_id),
    transaction_type VARCHAR(10) CHECK (transaction_type IN ('Revenue', 'Expense')),
    amount           NUMERIC(15,2),
    description      VARCHAR(200),
    reference_number VARCHAR(50)
);
`

// RebuildSchema drops and recreates all ten warehouse tables. Destructive:
// only ever call at the start of a full rebuild. Any statement failure is
// fatal to the run; there is no partial-schema recovery.
func RebuildSchema(ctx context.Context, conn db.DB) error {
	logging.Info().Msg("Rebuilding warehouse schema")

	if _, err := conn.Exec(ctx, dropSchemaSQL); err != nil {
		return fmt.Errorf("failed to drop existing tables: %w", err)
	}
	if _, err := conn.Exec(ctx, createSchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	logging.Info().
		Int("tables", len(AllTables)).
		Msg("Warehouse schema created")
	return nil
}

// DropSchema drops all ten warehouse tables.
func DropSchema(ctx context.Context, conn db.DB) error {
	_, err := conn.Exec(ctx, dropSchemaSQL)
	return err
}

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"
)

// Student who borrows books. Email may be empty; the overdue scanner
// skips such students with a warning.
type Student struct {
	ID            string `db:"student_ulid" json:"id"`
	Name          string `db:"name" json:"name"`
	Email         string `db:"email" json:"email"`
	ContactNumber string `db:"contact_number" json:"contactNumber"`
	Department    string `db:"department" json:"department"`
}

// StudentUpdate enumerates exactly the mutable student fields.
type StudentUpdate struct {
	Name          *string `json:"name"`
	Email         *string `json:"email"`
	ContactNumber *string `json:"contactNumber"`
	Department    *string `json:"department"`
}

// StudentStore is the MySQL-backed student collection.
type StudentStore struct {
	db *sqlx.DB
}

// NewStudentStore wraps an open database handle.
func NewStudentStore(db *sqlx.DB) *StudentStore {
	return &StudentStore{db: db}
}

// Migrate creates the students table if it is absent.
func (s *StudentStore) Migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS students (
	student_ulid   CHAR(26)     NOT NULL PRIMARY KEY,
	name           VARCHAR(255) NOT NULL,
	email          VARCHAR(255) NOT NULL DEFAULT '',
	contact_number VARCHAR(15)  NOT NULL DEFAULT '',
	department     VARCHAR(100) NOT NULL DEFAULT ''
)`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func validateEmail(email string) error {
	if email != "" && !strings.Contains(email, "@") {
		return &ValidationError{Field: "email", Reason: "must contain @"}
	}
	return nil
}

// Create inserts a new student and returns it.
func (s *StudentStore) Create(ctx context.Context, name, email, contactNumber, department string) (Student, error) {
	if name == "" {
		return Student{}, &ValidationError{Field: "name", Reason: "required"}
	}
	if err := validateEmail(email); err != nil {
		return Student{}, err
	}

	st := Student{
		ID:            ulid.Make().String(),
		Name:          name,
		Email:         email,
		ContactNumber: contactNumber,
		Department:    department,
	}
	const q = `INSERT INTO students (student_ulid, name, email, contact_number, department)
	VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, st.ID, st.Name, st.Email, st.ContactNumber, st.Department); err != nil {
		return Student{}, fmt.Errorf("catalog: insert student: %w", err)
	}
	return st, nil
}

// Get fetches one student.
func (s *StudentStore) Get(ctx context.Context, id string) (Student, error) {
	const q = `SELECT student_ulid, name, email, contact_number, department FROM students WHERE student_ulid = ?`

	var st Student
	if err := s.db.GetContext(ctx, &st, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Student{}, ErrNotFound
		}
		return Student{}, fmt.Errorf("catalog: get student: %w", err)
	}
	return st, nil
}

// List fetches all students.
func (s *StudentStore) List(ctx context.Context) ([]Student, error) {
	const q = `SELECT student_ulid, name, email, contact_number, department FROM students ORDER BY name`

	var out []Student
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("catalog: list students: %w", err)
	}
	return out, nil
}

// Update applies the given field changes.
func (s *StudentStore) Update(ctx context.Context, id string, upd StudentUpdate) (Student, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if upd.Name != nil {
		if *upd.Name == "" {
			return Student{}, &ValidationError{Field: "name", Reason: "must not be empty"}
		}
		st.Name = *upd.Name
	}
	if upd.Email != nil {
		if err := validateEmail(*upd.Email); err != nil {
			return Student{}, err
		}
		st.Email = *upd.Email
	}
	if upd.ContactNumber != nil {
		st.ContactNumber = *upd.ContactNumber
	}
	if upd.Department != nil {
		st.Department = *upd.Department
	}

	const q = `UPDATE students SET name = ?, email = ?, contact_number = ?, department = ? WHERE student_ulid = ?`
	if _, err := s.db.ExecContext(ctx, q, st.Name, st.Email, st.ContactNumber, st.Department, st.ID); err != nil {
		return Student{}, fmt.Errorf("catalog: update student: %w", err)
	}
	return st, nil
}

// Delete removes a student.
func (s *StudentStore) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM students WHERE student_ulid = ?`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("catalog: delete student: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// NameByID resolves a student name for display snapshotting.
func (s *StudentStore) NameByID(ctx context.Context, id string) (string, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return st.Name, nil
}

// EmailByID resolves the address on file; empty when none.
func (s *StudentStore) EmailByID(ctx context.Context, id string) (string, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return st.Email, nil
}

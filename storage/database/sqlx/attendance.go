package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

// recordRow mirrors the attendance_record table.
type recordRow struct {
	ID          string    `db:"id"`
	Date        time.Time `db:"date"`
	StudentID   string    `db:"student_id"`
	StudentName string    `db:"student_name"`
	Subject     string    `db:"subject"`
	Year        string    `db:"year"`
	Section     string    `db:"section"`
	Branch      string    `db:"branch"`
	Hour        int       `db:"hour"`
	Status      string    `db:"status"`
	FacultyID   string    `db:"faculty_id"`
	FacultyName string    `db:"faculty_name"`
	Remarks     string    `db:"remarks"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row *recordRow) record() attendance.Record {
	return attendance.Record{
		ID:          row.ID,
		Date:        attendance.NormalizeDate(row.Date),
		StudentID:   row.StudentID,
		StudentName: row.StudentName,
		Subject:     row.Subject,
		Year:        row.Year,
		Section:     row.Section,
		Branch:      row.Branch,
		Hour:        row.Hour,
		Status:      attendance.Status(row.Status),
		FacultyID:   row.FacultyID,
		FacultyName: row.FacultyName,
		Remarks:     row.Remarks,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to attendance.ErrNotFound
func (repo attendanceRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return attendance.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

var upsertQuery = `
INSERT INTO attendance_record (
	id, date, student_id, student_name, subject, year, section, branch,
	hour, status, faculty_id, faculty_name, remarks, created_at, updated_at
) VALUES (
	:id, :date, :student_id, :student_name, :subject, :year, :section, :branch,
	:hour, :status, :faculty_id, :faculty_name, :remarks, :created_at, :updated_at
)
ON CONFLICT (date, student_id, subject, hour) DO UPDATE SET
	status = EXCLUDED.status,
	remarks = EXCLUDED.remarks,
	faculty_id = EXCLUDED.faculty_id,
	faculty_name = EXCLUDED.faculty_name,
	student_name = CASE WHEN EXCLUDED.student_name <> '' THEN EXCLUDED.student_name ELSE attendance_record.student_name END,
	updated_at = EXCLUDED.updated_at
RETURNING id, date, student_id, student_name, subject, year, section, branch,
	hour, status, faculty_id, faculty_name, remarks, created_at, updated_at`

// UpsertRecord relies on the unique (date, student_id, subject, hour) index:
// the single INSERT .. ON CONFLICT statement is atomic per key, so concurrent
// corrections of the same record serialize in the database.
func (repo attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	if err := rec.CheckRequired(); err != nil {
		return attendance.Record{}, err
	}

	now := time.Now().UTC()
	row := recordRow{
		ID:          uuid.New().String(),
		Date:        attendance.NormalizeDate(rec.Date),
		StudentID:   rec.StudentID,
		StudentName: rec.StudentName,
		Subject:     rec.Subject,
		Year:        rec.Year,
		Section:     rec.Section,
		Branch:      rec.Branch,
		Hour:        rec.Hour,
		Status:      string(rec.Status),
		FacultyID:   rec.FacultyID,
		FacultyName: rec.FacultyName,
		Remarks:     rec.Remarks,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	rows, err := sqlx.NamedQueryContext(ctx, repo.db, upsertQuery, row)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "upserting attendance record")
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return attendance.Record{}, errors.Wrap(err, "upserting attendance record")
		}
		return attendance.Record{}, errors.New("upserting attendance record: no row returned")
	}
	var saved recordRow
	if err = rows.StructScan(&saved); err != nil {
		return attendance.Record{}, errors.Wrap(err, "scanning attendance record")
	}
	return saved.record(), nil
}

func (repo attendanceRepository) GetRecord(ctx context.Context, key attendance.Key) (attendance.Record, error) {
	var row recordRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT * FROM attendance_record
		WHERE date = $1 AND student_id = $2 AND subject = $3 AND hour = $4`,
		key.Date, key.StudentID, key.Subject, key.Hour,
	)
	if err != nil {
		return attendance.Record{}, repo.trapNoRowsErr(err, "getting attendance record")
	}
	return row.record(), nil
}

func (repo attendanceRepository) FilterRecords(ctx context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	where := make([]string, 0, 8)
	args := make([]interface{}, 0, 8)

	arg := func(clause string, val interface{}) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if !filter.Date.IsZero() {
		arg("date = $%d", attendance.NormalizeDate(filter.Date))
	}
	if !filter.DateFrom.IsZero() {
		arg("date >= $%d", attendance.NormalizeDate(filter.DateFrom))
	}
	if !filter.DateTo.IsZero() {
		arg("date <= $%d", attendance.NormalizeDate(filter.DateTo))
	}
	if filter.StudentID != "" {
		arg("student_id = $%d", filter.StudentID)
	}
	if filter.Subject != "" {
		arg("subject = $%d", filter.Subject)
	}
	if filter.Section != "" {
		arg("section = $%d", filter.Section)
	}
	if filter.Year != "" {
		arg("year = $%d", filter.Year)
	}
	if filter.Branch != "" {
		arg("branch = $%d", filter.Branch)
	}
	if filter.FacultyID != "" {
		arg("faculty_id = $%d", filter.FacultyID)
	}
	if filter.Hour != nil {
		arg("hour = $%d", *filter.Hour)
	}

	query := "SELECT * FROM attendance_record"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	var rows []recordRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering attendance records")
	}

	records := make([]attendance.Record, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].record())
	}
	return records, nil
}

func (repo attendanceRepository) DeleteRecords(ctx context.Context, keys ...attendance.Key) error {
	for _, key := range keys {
		_, err := repo.db.ExecContext(ctx, `
			DELETE FROM attendance_record
			WHERE date = $1 AND student_id = $2 AND subject = $3 AND hour = $4`,
			key.Date, key.StudentID, key.Subject, key.Hour,
		)
		if err != nil {
			return errors.Wrap(err, "deleting attendance record")
		}
	}
	return nil
}

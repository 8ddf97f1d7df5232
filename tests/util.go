package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

// Logger sinks service logs into the test output.
type Logger struct {
	T *testing.T
}

var _ core.Logger = (*Logger)(nil)

func (l Logger) Debug(msg string, args ...interface{}) { l.T.Logf("DEBUG: %s %v", msg, args) }
func (l Logger) Info(msg string, args ...interface{})  { l.T.Logf("INFO: %s %v", msg, args) }
func (l Logger) Warn(msg string, args ...interface{})  { l.T.Logf("WARN: %s %v", msg, args) }
func (l Logger) Error(msg string, args ...interface{}) { l.T.Logf("ERROR: %s %v", msg, args) }
func (l Logger) Fatal(msg string, args ...interface{}) { l.T.Fatalf("FATAL: %s %v", msg, args) }

func Date(t *testing.T, date string) time.Time {
	day, err := time.Parse(attendance.DateFormat, date)
	if err != nil {
		t.Fatalf("Date() failed: %v", err)
	}
	return day
}

func CreateRecord(
	t *testing.T,
	repo attendance.Repository,
	date, studentID, subject, facultyID string,
	hour int,
	status attendance.Status,
	class ...attendance.ClassKey,
) attendance.Record {
	tstamp := time.Now().UTC()
	rec := attendance.Record{
		Date:      Date(t, date),
		StudentID: studentID,
		Subject:   subject,
		FacultyID: facultyID,
		Hour:      hour,
		Status:    status,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if len(class) > 0 {
		rec.Section = class[0].Section
		rec.Year = class[0].Year
		rec.Branch = class[0].Branch
	}
	rec, err := repo.UpsertRecord(context.Background(), rec)
	if err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	return rec
}

package attendance

import (
	"fmt"
	"time"

	"github.com/trezcool/mahudhurio/core"
)

// DateFormat is the calendar-date encoding used on the wire and in composite
// keys. Attendance facts carry no time component; all hours of a day share
// one date.
const DateFormat = "2006-01-02"

type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

type Classification string

const (
	ClassRegular   Classification = "Regular"
	ClassIrregular Classification = "Irregular"
	ClassAbsent    Classification = "Absent"
)

// Key uniquely identifies one attendance fact: a student's status for one
// subject-hour-date. Re-marking the same key overwrites in place; it never
// creates a duplicate.
type Key struct {
	Date      string
	StudentID string
	Subject   string
	Hour      int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s/%d", k.Date, k.StudentID, k.Subject, k.Hour)
}

// Record is one attendance fact.
type Record struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	Subject     string    `json:"subject"`
	Year        string    `json:"year"`
	Section     string    `json:"section"`
	Branch      string    `json:"branch"`
	Hour        int       `json:"hour"`
	Status      Status    `json:"status"`
	FacultyID   string    `json:"faculty_id"`
	FacultyName string    `json:"faculty_name"`
	Remarks     string    `json:"remarks,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r *Record) Key() Key {
	return Key{
		Date:      r.Date.Format(DateFormat),
		StudentID: r.StudentID,
		Subject:   r.Subject,
		Hour:      r.Hour,
	}
}

// CheckRequired rejects a write missing any field of the composite key or the
// status. Stores call it before mutating anything.
func (r *Record) CheckRequired() error {
	var flds []core.FieldError
	if r.Date.IsZero() {
		flds = append(flds, core.FieldError{Field: "date", Error: "this field is required"})
	}
	if r.StudentID == "" {
		flds = append(flds, core.FieldError{Field: "student_id", Error: "this field is required"})
	}
	if r.Subject == "" {
		flds = append(flds, core.FieldError{Field: "subject", Error: "this field is required"})
	}
	if r.Hour < 0 {
		flds = append(flds, core.FieldError{Field: "hour", Error: "this field is required"})
	}
	if !r.Status.Valid() {
		flds = append(flds, core.FieldError{Field: "status", Error: "status must be Present or Absent"})
	}
	if flds != nil {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// NormalizeDate drops the time component, pinning the date to midnight UTC.
func NormalizeDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Filter narrows a record scan. Zero-valued fields are ignored; set fields
// are ANDed, as every rollup filters on a different subset.
type Filter struct {
	Date      time.Time `query:"date"`
	DateFrom  time.Time `query:"date_from"`
	DateTo    time.Time `query:"date_to"`
	StudentID string    `query:"student_id"`
	Subject   string    `query:"subject"`
	Section   string    `query:"section"`
	Year      string    `query:"year"`
	Branch    string    `query:"branch"`
	FacultyID string    `query:"faculty_id"`
	Hour      *int      `query:"hour"`
}

func (f *Filter) IsEmpty() bool {
	return f.Date.IsZero() && f.DateFrom.IsZero() && f.DateTo.IsZero() &&
		f.StudentID == "" && f.Subject == "" && f.Section == "" && f.Year == "" &&
		f.Branch == "" && f.FacultyID == "" && f.Hour == nil
}

func (f *Filter) Clean() {
	f.StudentID = core.CleanString(f.StudentID)
	f.Subject = core.CleanString(f.Subject)
	f.Section = core.CleanString(f.Section)
	f.Year = core.CleanString(f.Year)
	f.Branch = core.CleanString(f.Branch)
	f.FacultyID = core.CleanString(f.FacultyID)
}

// Match reports whether `rec` satisfies the filter; shared by in-memory scans.
func (f *Filter) Match(rec *Record) bool {
	if !f.Date.IsZero() && !NormalizeDate(f.Date).Equal(rec.Date) {
		return false
	}
	if !f.DateFrom.IsZero() && rec.Date.Before(NormalizeDate(f.DateFrom)) {
		return false
	}
	if !f.DateTo.IsZero() && rec.Date.After(NormalizeDate(f.DateTo)) {
		return false
	}
	if f.StudentID != "" && f.StudentID != rec.StudentID {
		return false
	}
	if f.Subject != "" && f.Subject != rec.Subject {
		return false
	}
	if f.Section != "" && f.Section != rec.Section {
		return false
	}
	if f.Year != "" && f.Year != rec.Year {
		return false
	}
	if f.Branch != "" && f.Branch != rec.Branch {
		return false
	}
	if f.FacultyID != "" && f.FacultyID != rec.FacultyID {
		return false
	}
	if f.Hour != nil && *f.Hour != rec.Hour {
		return false
	}
	return true
}

// MarkSession is a faculty marking batch: the shared class context plus one
// entry per student. Hour may be set once for the whole batch or overridden
// per record.
type MarkSession struct {
	Date        string       `json:"date" validate:"required,dateonly"`
	Subject     string       `json:"subject" validate:"required,notblank"`
	Year        string       `json:"year"`
	Section     string       `json:"section"`
	Branch      string       `json:"branch"`
	FacultyID   string       `json:"faculty_id" validate:"required,notblank"`
	FacultyName string       `json:"faculty_name"`
	Hour        *int         `json:"hour" validate:"omitempty,hourslot"`
	Records     []MarkRecord `json:"records" validate:"required,min=1"`
}

func (ms *MarkSession) Validate() error {
	ms.Subject = core.CleanString(ms.Subject)
	ms.Year = core.CleanString(ms.Year)
	ms.Section = core.CleanString(ms.Section)
	ms.Branch = core.CleanString(ms.Branch)
	ms.FacultyID = core.CleanString(ms.FacultyID)
	ms.FacultyName = core.CleanString(ms.FacultyName)
	return core.Validate.Struct(ms)
}

// SessionDate parses the (already validated) batch date.
func (ms *MarkSession) SessionDate() (time.Time, error) {
	t, err := time.Parse(DateFormat, ms.Date)
	if err != nil {
		return time.Time{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "date must be formatted as YYYY-MM-DD"})
	}
	return NormalizeDate(t), nil
}

type MarkRecord struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Status      Status `json:"status"`
	Hour        *int   `json:"hour,omitempty"`
	Remarks     string `json:"remarks,omitempty"`
}

type RejectedRecord struct {
	Record MarkRecord `json:"record"`
	Reason string     `json:"reason"`
}

// BatchResult reports exactly which records were applied and which were
// rejected; one invalid record never aborts the batch.
type BatchResult struct {
	BatchID  string           `json:"batch_id"`
	Accepted int              `json:"accepted"`
	Rejected []RejectedRecord `json:"rejected"`
}

// HourMark is one slot of a student's day.
type HourMark struct {
	Subject string `json:"subject"`
	Status  Status `json:"status"`
}

// DailyBreakdown is a student's hour-by-hour view of one date. Dates with no
// recorded hours are never emitted.
type DailyBreakdown struct {
	Date           string           `json:"date"`
	TotalHours     int              `json:"total_hours"`
	PresentHours   int              `json:"present_hours"`
	Percentage     int              `json:"percentage"`
	Classification Classification   `json:"classification"`
	Hours          map[int]HourMark `json:"hours"`
}

// StudentAttendance is the externally consumed shape of the daily classifier.
// OverallPercentage is hour-weighted: present hours over total hours across
// the whole history, not an average of per-day percentages.
type StudentAttendance struct {
	StudentID         string           `json:"student_id"`
	StudentName       string           `json:"student_name"`
	TotalRecords      int              `json:"total_records"`
	OverallPercentage int              `json:"overall_percentage"`
	Classification    Classification   `json:"classification"`
	Daily             []DailyBreakdown `json:"daily"`
}

// Rollup views. All are read-only projections of the record set; an empty
// matching set yields a zero-valued structure, never an error.

type Overview struct {
	TotalRecords             int `json:"total_records"`
	OverallAttendancePercent int `json:"overall_attendance_percent"`
	PresentCount             int `json:"present_count"`
	AbsentCount              int `json:"absent_count"`
}

type FacultyActivity struct {
	FacultyID      string `json:"faculty_id"`
	FacultyName    string `json:"faculty_name"`
	RecordsMarked  int    `json:"records_marked"`
	DatesMarked    int    `json:"dates_marked"`
	SubjectsMarked int    `json:"subjects_marked"`
}

type FacultyActivityReport struct {
	Count int               `json:"count"`
	Data  []FacultyActivity `json:"data"`
}

// ClassKey is the class-context grouping key.
type ClassKey struct {
	Subject string `json:"subject"`
	Section string `json:"section"`
	Year    string `json:"year"`
	Branch  string `json:"branch"`
}

type ClassAttendance struct {
	ClassKey
	StudentCount      int `json:"student_count"`
	TotalRecords      int `json:"total_records"`
	AttendancePercent int `json:"attendance_percent"`
}

type ClassAttendanceReport struct {
	Count int               `json:"count"`
	Data  []ClassAttendance `json:"data"`
}

type LowAttendanceClass struct {
	ClassAttendance
	Severity string `json:"severity"`
}

type LowAttendanceReport struct {
	Count  int                  `json:"count"`
	Cutoff int                  `json:"cutoff"`
	Data   []LowAttendanceClass `json:"data"`
}

type StudentRank struct {
	StudentID         string         `json:"student_id"`
	StudentName       string         `json:"student_name"`
	AttendancePercent int            `json:"attendance_percent"`
	Classification    Classification `json:"classification"`
}

type StudentPerformanceReport struct {
	TotalStudents     int           `json:"total_students"`
	RegularStudents   int           `json:"regular_students"`
	IrregularStudents int           `json:"irregular_students"`
	AbsentStudents    int           `json:"absent_students"`
	TopPerformers     []StudentRank `json:"top_performers"`
	Struggling        []StudentRank `json:"struggling"`
}

type HourlyTrend struct {
	Hour              int    `json:"hour"`
	TimeLabel         string `json:"time_label"`
	TotalRecords      int    `json:"total_records"`
	AttendancePercent int    `json:"attendance_percent"`
}

type HourlyTrendsReport struct {
	Count     int           `json:"count"`
	PeakHours []int         `json:"peak_hours"`
	Data      []HourlyTrend `json:"data"`
}

type DailyTrend struct {
	Date              string `json:"date"`
	TotalRecords      int    `json:"total_records"`
	AttendancePercent int    `json:"attendance_percent"`
}

type DailyTrendsReport struct {
	Count             int          `json:"count"`
	WindowDays        int          `json:"window_days"`
	AverageAttendance int          `json:"average_attendance"`
	Data              []DailyTrend `json:"data"`
}

type DepartmentSummary struct {
	Branch            string `json:"branch"`
	StudentCount      int    `json:"student_count"`
	ClassCount        int    `json:"class_count"`
	TotalRecords      int    `json:"total_records"`
	AttendancePercent int    `json:"attendance_percent"`
}

type DepartmentSummaryReport struct {
	Count int                 `json:"count"`
	Data  []DepartmentSummary `json:"data"`
}

package attendance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core"
)

var (
	// errors
	ErrNotFound = errors.New("attendance record not found")

	errStudentIDRequired = "student_id is required"
	errStatusInvalid     = "status must be Present or Absent"
	errHourRequired      = "hour is required (on the batch or the record)"
)

type (
	Repository interface {
		// UpsertRecord applies `rec` at its composite key atomically:
		// an existing record has its status/remarks/faculty/name fields
		// overwritten in place, a missing one is created. Exactly one record
		// per key ever exists.
		UpsertRecord(ctx context.Context, rec Record) (Record, error)
		GetRecord(ctx context.Context, key Key) (Record, error)
		// FilterRecords applies AND operation on available Filter fields.
		FilterRecords(ctx context.Context, filter Filter) ([]Record, error)
		// DeleteRecords is administrative/test-only; not part of normal flow.
		DeleteRecords(ctx context.Context, keys ...Key) error
	}

	Service struct {
		repo   Repository
		policy Policy
		logger core.Logger
	}
)

func NewService(repo Repository, policy Policy, logger core.Logger) *Service {
	return &Service{repo: repo, policy: policy, logger: logger}
}

func (svc *Service) Policy() Policy {
	return svc.policy
}

// MarkBatch validates and idempotently applies a faculty marking batch.
// Invalid records are reported in BatchResult.Rejected while the valid rest
// is still applied; resubmitting a batch corrects records in place.
func (svc *Service) MarkBatch(ctx context.Context, ms MarkSession) (BatchResult, error) {
	date, err := ms.SessionDate()
	if err != nil {
		return BatchResult{}, err
	}

	res := BatchResult{
		BatchID:  uuid.New().String(),
		Rejected: make([]RejectedRecord, 0),
	}
	now := time.Now().UTC()

	for _, mr := range ms.Records {
		mr.StudentID = core.CleanString(mr.StudentID)
		if reason, ok := svc.checkMarkRecord(ms, mr); !ok {
			res.Rejected = append(res.Rejected, RejectedRecord{Record: mr, Reason: reason})
			continue
		}

		hour := ms.Hour
		if mr.Hour != nil {
			hour = mr.Hour
		}
		rec := Record{
			Date:        date,
			StudentID:   mr.StudentID,
			StudentName: core.CleanString(mr.StudentName),
			Subject:     ms.Subject,
			Year:        ms.Year,
			Section:     ms.Section,
			Branch:      ms.Branch,
			Hour:        *hour,
			Status:      mr.Status,
			FacultyID:   ms.FacultyID,
			FacultyName: ms.FacultyName,
			Remarks:     core.CleanString(mr.Remarks),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err = svc.repo.UpsertRecord(ctx, rec); err != nil {
			if vErr, ok := err.(*core.ValidationError); ok {
				res.Rejected = append(res.Rejected, RejectedRecord{Record: mr, Reason: vErr.Error()})
				continue
			}
			return res, err
		}
		res.Accepted++
	}
	return res, nil
}

func (svc *Service) checkMarkRecord(ms MarkSession, mr MarkRecord) (string, bool) {
	if mr.StudentID == "" {
		return errStudentIDRequired, false
	}
	if !mr.Status.Valid() {
		return errStatusInvalid, false
	}
	if ms.Hour == nil && mr.Hour == nil {
		return errHourRequired, false
	}
	if mr.Hour != nil && (*mr.Hour < 0 || *mr.Hour > 23) {
		return hourSlotText, false
	}
	return "", true
}

// StudentAttendance derives a student's per-date breakdown and hour-weighted
// overall percentage. `from`/`to` bound the dates when non-zero. A date with
// zero recorded hours is omitted rather than emitted as a spurious Absent.
func (svc *Service) StudentAttendance(ctx context.Context, studentID string, from, to time.Time) (StudentAttendance, error) {
	sa := StudentAttendance{
		StudentID: studentID,
		Daily:     make([]DailyBreakdown, 0),
	}

	records, err := svc.records(ctx, Filter{StudentID: studentID, DateFrom: from, DateTo: to}, "StudentAttendance")
	if err != nil {
		return sa, err
	}

	// stable order so shared hour slots resolve the same way on every run
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		if records[i].Hour != records[j].Hour {
			return records[i].Hour < records[j].Hour
		}
		return records[i].Subject < records[j].Subject
	})

	days := make(map[string]*DailyBreakdown)
	seen := make(map[Key]bool, len(records))
	recs := make([]*Record, 0, len(records))

	for i := range records {
		rec := &records[i]
		key := rec.Key()
		if seen[key] {
			// the store's upsert contract makes this unreachable; do not
			// paper over it, it corrupts every percentage downstream
			err = core.NewInvariantViolationError(fmt.Sprintf("duplicate record at key %s", key))
			svc.logger.Error(err.Error(), err)
			return sa, err
		}
		seen[key] = true
		sa.TotalRecords++
		recs = append(recs, rec)

		day, ok := days[key.Date]
		if !ok {
			day = &DailyBreakdown{Date: key.Date, Hours: make(map[int]HourMark)}
			days[key.Date] = day
		}
		// distinct hour slots only; a Present mark wins a shared slot
		if mark, marked := day.Hours[rec.Hour]; !marked || mark.Status != StatusPresent {
			day.Hours[rec.Hour] = HourMark{Subject: rec.Subject, Status: rec.Status}
		}
		if sa.StudentName == "" {
			sa.StudentName = rec.StudentName
		}
	}

	for _, day := range days {
		day.TotalHours = len(day.Hours)
		for _, mark := range day.Hours {
			if mark.Status == StatusPresent {
				day.PresentHours++
			}
		}
		day.Percentage = svc.policy.Percent(day.PresentHours, day.TotalHours)
		day.Classification = svc.policy.Classify(day.Percentage)
		sa.Daily = append(sa.Daily, *day)
	}
	sort.Slice(sa.Daily, func(i, j int) bool { return sa.Daily[i].Date < sa.Daily[j].Date })

	sa.OverallPercentage = svc.policy.Percent(countHourSlots(recs))
	sa.Classification = svc.policy.Classify(sa.OverallPercentage)
	return sa, nil
}

// FacultyRecords returns the records a faculty member marked, most recent
// date first; backs the faculty "my classes" view.
func (svc *Service) FacultyRecords(ctx context.Context, facultyID string) ([]Record, error) {
	records, err := svc.records(ctx, Filter{FacultyID: facultyID}, "FacultyRecords")
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.After(records[j].Date)
		}
		if records[i].Hour != records[j].Hour {
			return records[i].Hour < records[j].Hour
		}
		return records[i].StudentID < records[j].StudentID
	})
	return records, nil
}

// Query returns raw records matching `filter`, ordered by date/hour/student;
// backs the class-day register used by correction UIs.
func (svc *Service) Query(ctx context.Context, filter Filter) ([]Record, error) {
	filter.Clean()
	records, err := svc.records(ctx, filter, "Query")
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		if records[i].Hour != records[j].Hour {
			return records[i].Hour < records[j].Hour
		}
		return records[i].StudentID < records[j].StudentID
	})
	return records, nil
}

// DeleteRecords removes records by key; administrative use only.
func (svc *Service) DeleteRecords(ctx context.Context, keys ...Key) error {
	return svc.repo.DeleteRecords(ctx, keys...)
}

// records fetches a filtered slice, mapping a blown deadline to TimeoutError
// so callers never mistake an aborted scan for an empty result.
func (svc *Service) records(ctx context.Context, filter Filter, op string) ([]Record, error) {
	if err := checkDeadline(ctx, op); err != nil {
		return nil, err
	}
	records, err := svc.repo.FilterRecords(ctx, filter)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, core.NewTimeoutError(op)
		}
		return nil, err
	}
	return records, nil
}

func checkDeadline(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return core.NewTimeoutError(op)
	}
	return nil
}

type hourSlot struct {
	date string
	hour int
}

// countHourSlots reduces records to distinct (date, hour) slots, a Present
// mark winning a shared slot. The student view and the performance rollup
// both count hours through it so their percentages cannot drift apart.
func countHourSlots(records []*Record) (present, total int) {
	slots := make(map[hourSlot]Status, len(records))
	for _, rec := range records {
		slot := hourSlot{date: rec.Date.Format(DateFormat), hour: rec.Hour}
		if status, ok := slots[slot]; ok && status == StatusPresent {
			continue
		}
		slots[slot] = rec.Status
	}
	for _, status := range slots {
		total++
		if status == StatusPresent {
			present++
		}
	}
	return present, total
}

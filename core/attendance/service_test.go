package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	dummydb "github.com/trezcool/mahudhurio/storage/database/dummy"
	testutil "github.com/trezcool/mahudhurio/tests"
)

func setup(t *testing.T) (*attendance.Service, attendance.Repository) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo := dummydb.NewAttendanceRepository(db)
	svc := attendance.NewService(repo, attendance.DefaultPolicy(), testutil.Logger{T: t})
	return svc, repo
}

func intPtr(i int) *int { return &i }

func TestService_MarkBatch(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	ms := attendance.MarkSession{
		Date:      "2026-08-03",
		Subject:   "Mathematics",
		Year:      "2",
		Section:   "A",
		Branch:    "CSE",
		FacultyID: "F001",
		Hour:      intPtr(10),
		Records: []attendance.MarkRecord{
			{StudentID: "S001", StudentName: "Asha", Status: attendance.StatusPresent},
			{StudentID: "S002", Status: attendance.StatusAbsent, Remarks: "sick leave"},
			{StudentID: "S003", Status: attendance.StatusPresent, Hour: intPtr(11)}, // per-record override
		},
	}
	res, err := svc.MarkBatch(ctx, ms)
	if err != nil {
		t.Fatalf("MarkBatch() failed: %v", err)
	}
	if res.BatchID == "" {
		t.Error("MarkBatch() returned an empty batch ID")
	}
	if res.Accepted != 3 {
		t.Errorf("MarkBatch() accepted = %d, want 3", res.Accepted)
	}
	if len(res.Rejected) != 0 {
		t.Errorf("MarkBatch() rejected = %v, want none", res.Rejected)
	}

	rec, err := repo.GetRecord(ctx, attendance.Key{Date: "2026-08-03", StudentID: "S002", Subject: "Mathematics", Hour: 10})
	if err != nil {
		t.Fatalf("GetRecord() failed: %v", err)
	}
	if rec.Status != attendance.StatusAbsent || rec.Remarks != "sick leave" {
		t.Errorf("unexpected record: status=%s remarks=%q", rec.Status, rec.Remarks)
	}

	if _, err = repo.GetRecord(ctx, attendance.Key{Date: "2026-08-03", StudentID: "S003", Subject: "Mathematics", Hour: 11}); err != nil {
		t.Errorf("per-record hour override not applied: %v", err)
	}
}

func TestService_MarkBatch_idempotent(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	ms := attendance.MarkSession{
		Date:      "2026-08-03",
		Subject:   "Physics",
		FacultyID: "F001",
		Hour:      intPtr(9),
		Records:   []attendance.MarkRecord{{StudentID: "S001", Status: attendance.StatusPresent}},
	}
	if _, err := svc.MarkBatch(ctx, ms); err != nil {
		t.Fatalf("MarkBatch() failed: %v", err)
	}

	// resubmit with a correction; must overwrite in place, never duplicate
	ms.Records[0].Status = attendance.StatusAbsent
	if _, err := svc.MarkBatch(ctx, ms); err != nil {
		t.Fatalf("MarkBatch() resubmit failed: %v", err)
	}

	records, err := repo.FilterRecords(ctx, attendance.Filter{StudentID: "S001"})
	if err != nil {
		t.Fatalf("FilterRecords() failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("resubmitting a batch created %d records, want 1", len(records))
	}
	if records[0].Status != attendance.StatusAbsent {
		t.Errorf("correction not applied: status = %s, want %s", records[0].Status, attendance.StatusAbsent)
	}
}

func TestService_MarkBatch_partialRejection(t *testing.T) {
	svc, _ := setup(t)

	ms := attendance.MarkSession{
		Date:      "2026-08-03",
		Subject:   "Chemistry",
		FacultyID: "F002",
		Records: []attendance.MarkRecord{
			{StudentID: "S001", Status: attendance.StatusPresent, Hour: intPtr(8)},
			{StudentID: "", Status: attendance.StatusPresent, Hour: intPtr(8)},      // missing student
			{StudentID: "S003", Status: attendance.Status("Late"), Hour: intPtr(8)}, // bad status
			{StudentID: "S004", Status: attendance.StatusPresent},                   // no hour anywhere
			{StudentID: "S005", Status: attendance.StatusPresent, Hour: intPtr(24)}, // hour out of range
		},
	}
	res, err := svc.MarkBatch(context.Background(), ms)
	if err != nil {
		t.Fatalf("MarkBatch() failed: %v", err)
	}
	if res.Accepted != 1 {
		t.Errorf("MarkBatch() accepted = %d, want 1", res.Accepted)
	}
	if len(res.Rejected) != 4 {
		t.Fatalf("MarkBatch() rejected %d records, want 4", len(res.Rejected))
	}
	for _, rej := range res.Rejected {
		if rej.Reason == "" {
			t.Errorf("rejected record %v carries no reason", rej.Record)
		}
	}
}

func TestService_StudentAttendance(t *testing.T) {
	svc, repo := setup(t)

	// day 1: 8/8 hours present; day 2: 1/2 hours present
	for hour := 8; hour < 16; hour++ {
		testutil.CreateRecord(t, repo, "2026-08-03", "S001", "Mathematics", "F001", hour, attendance.StatusPresent)
	}
	testutil.CreateRecord(t, repo, "2026-08-04", "S001", "Mathematics", "F001", 8, attendance.StatusPresent)
	testutil.CreateRecord(t, repo, "2026-08-04", "S001", "Physics", "F002", 9, attendance.StatusAbsent)

	sa, err := svc.StudentAttendance(context.Background(), "S001", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("StudentAttendance() failed: %v", err)
	}

	if sa.TotalRecords != 10 {
		t.Errorf("total records = %d, want 10", sa.TotalRecords)
	}
	if len(sa.Daily) != 2 {
		t.Fatalf("daily breakdown has %d days, want 2", len(sa.Daily))
	}

	day1, day2 := sa.Daily[0], sa.Daily[1]
	if day1.Date != "2026-08-03" || day2.Date != "2026-08-04" {
		t.Fatalf("daily breakdown out of order: %s, %s", day1.Date, day2.Date)
	}
	if day1.Percentage != 100 || day1.Classification != attendance.ClassRegular {
		t.Errorf("day 1 = %d%% %s, want 100%% Regular", day1.Percentage, day1.Classification)
	}
	if day2.Percentage != 50 || day2.Classification != attendance.ClassIrregular {
		t.Errorf("day 2 = %d%% %s, want 50%% Irregular", day2.Percentage, day2.Classification)
	}

	// hour-weighted: 9 present / 10 total = 90, not the 75 a day-average would give
	if sa.OverallPercentage != 90 {
		t.Errorf("overall percentage = %d, want 90 (hour-weighted)", sa.OverallPercentage)
	}
	if sa.Classification != attendance.ClassRegular {
		t.Errorf("overall classification = %s, want %s", sa.Classification, attendance.ClassRegular)
	}
}

func TestService_StudentAttendance_sharedHourSlot(t *testing.T) {
	svc, repo := setup(t)

	// two subjects in the same hour slot count as one distinct hour; Present wins
	testutil.CreateRecord(t, repo, "2026-08-03", "S001", "Mathematics", "F001", 10, attendance.StatusAbsent)
	testutil.CreateRecord(t, repo, "2026-08-03", "S001", "Physics", "F002", 10, attendance.StatusPresent)

	sa, err := svc.StudentAttendance(context.Background(), "S001", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("StudentAttendance() failed: %v", err)
	}
	if sa.TotalRecords != 2 {
		t.Errorf("total records = %d, want 2", sa.TotalRecords)
	}
	if len(sa.Daily) != 1 || sa.Daily[0].TotalHours != 1 {
		t.Fatalf("distinct hours not deduplicated: %+v", sa.Daily)
	}
	if sa.OverallPercentage != 100 {
		t.Errorf("overall percentage = %d, want 100 (Present wins the shared slot)", sa.OverallPercentage)
	}
}

func TestService_StudentAttendance_empty(t *testing.T) {
	svc, _ := setup(t)

	sa, err := svc.StudentAttendance(context.Background(), "ghost", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("StudentAttendance() failed: %v", err)
	}
	if sa.StudentID != "ghost" || sa.TotalRecords != 0 || sa.OverallPercentage != 0 {
		t.Errorf("empty history must be a zero-valued view, got %+v", sa)
	}
	if sa.Daily == nil || len(sa.Daily) != 0 {
		t.Errorf("daily breakdown = %v, want empty non-nil slice", sa.Daily)
	}
	if sa.Classification != attendance.ClassAbsent {
		t.Errorf("classification = %s, want %s", sa.Classification, attendance.ClassAbsent)
	}
}

func TestService_StudentAttendance_dateBounds(t *testing.T) {
	svc, repo := setup(t)

	testutil.CreateRecord(t, repo, "2026-08-01", "S001", "Mathematics", "F001", 8, attendance.StatusAbsent)
	testutil.CreateRecord(t, repo, "2026-08-03", "S001", "Mathematics", "F001", 8, attendance.StatusPresent)
	testutil.CreateRecord(t, repo, "2026-08-05", "S001", "Mathematics", "F001", 8, attendance.StatusAbsent)

	sa, err := svc.StudentAttendance(context.Background(), "S001", testutil.Date(t, "2026-08-02"), testutil.Date(t, "2026-08-04"))
	if err != nil {
		t.Fatalf("StudentAttendance() failed: %v", err)
	}
	if sa.TotalRecords != 1 || len(sa.Daily) != 1 || sa.Daily[0].Date != "2026-08-03" {
		t.Errorf("date bounds not applied: %+v", sa)
	}
}

func TestService_FacultyRecords(t *testing.T) {
	svc, repo := setup(t)

	testutil.CreateRecord(t, repo, "2026-08-03", "S001", "Mathematics", "F001", 8, attendance.StatusPresent)
	testutil.CreateRecord(t, repo, "2026-08-04", "S001", "Mathematics", "F001", 8, attendance.StatusPresent)
	testutil.CreateRecord(t, repo, "2026-08-04", "S001", "Physics", "F002", 9, attendance.StatusPresent)

	records, err := svc.FacultyRecords(context.Background(), "F001")
	if err != nil {
		t.Fatalf("FacultyRecords() failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("FacultyRecords() returned %d records, want 2", len(records))
	}
	// most recent date first
	if !records[0].Date.After(records[1].Date) {
		t.Errorf("records not in descending date order: %v, %v", records[0].Date, records[1].Date)
	}
}

func TestService_Query(t *testing.T) {
	svc, repo := setup(t)

	class := attendance.ClassKey{Section: "A", Year: "2", Branch: "CSE"}
	testutil.CreateRecord(t, repo, "2026-08-03", "S002", "Mathematics", "F001", 8, attendance.StatusPresent, class)
	testutil.CreateRecord(t, repo, "2026-08-03", "S001", "Mathematics", "F001", 8, attendance.StatusAbsent, class)
	testutil.CreateRecord(t, repo, "2026-08-03", "S001", "Physics", "F002", 9, attendance.StatusPresent)

	records, err := svc.Query(context.Background(), attendance.Filter{
		Date:    testutil.Date(t, "2026-08-03"),
		Subject: " Mathematics ", // cleaned before matching
	})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Query() returned %d records, want 2", len(records))
	}
	if records[0].StudentID != "S001" || records[1].StudentID != "S002" {
		t.Errorf("register not ordered by student: %s, %s", records[0].StudentID, records[1].StudentID)
	}
}

func TestService_expiredContext(t *testing.T) {
	svc, repo := setup(t)
	testutil.CreateRecord(t, repo, "2026-08-03", "S001", "Mathematics", "F001", 8, attendance.StatusPresent)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.StudentAttendance(ctx, "S001", time.Time{}, time.Time{}); !core.IsTimeout(err) {
		t.Errorf("StudentAttendance() with dead context = %v, want TimeoutError", err)
	}
	if _, err := svc.Query(ctx, attendance.Filter{}); !core.IsTimeout(err) {
		t.Errorf("Query() with dead context = %v, want TimeoutError", err)
	}
}

func TestService_DeleteRecords(t *testing.T) {
	svc, repo := setup(t)

	rec := testutil.CreateRecord(t, repo, "2026-08-03", "S001", "Mathematics", "F001", 8, attendance.StatusPresent)
	if err := svc.DeleteRecords(context.Background(), rec.Key()); err != nil {
		t.Fatalf("DeleteRecords() failed: %v", err)
	}
	if _, err := repo.GetRecord(context.Background(), rec.Key()); err != attendance.ErrNotFound {
		t.Errorf("GetRecord() after delete = %v, want ErrNotFound", err)
	}
}

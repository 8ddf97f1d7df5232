package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	dummydb "github.com/trezcool/mahudhurio/storage/database/dummy"
	testutil "github.com/trezcool/mahudhurio/tests"
)

func setup(t *testing.T) (Server, attendance.Repository) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo := dummydb.NewAttendanceRepository(db)
	svc := attendance.NewService(repo, attendance.DefaultPolicy(), testutil.Logger{T: t})

	app := NewServer(ServerDeps{
		Conf:           &core.Config{AppName: "Mahudhurio", TestMode: true},
		Logger:         testutil.Logger{T: t},
		AttendanceSvc:  svc,
		DisableReqLogs: true,
	})
	return app, repo
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decodeBody() failed: %v\nbody: %s", err, rec.Body.String())
	}
}

func intPtr(i int) *int { return &i }

func TestHome(t *testing.T) {
	app, _ := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET / code = %d, want 200", rec.Code)
	}
}

func Test_attendanceApi_markBatch(t *testing.T) {
	app, repo := setup(t)

	body := marchallObj(t, attendance.MarkSession{
		Date:      "2026-08-03",
		Subject:   "Mathematics",
		Year:      "2",
		Section:   "A",
		Branch:    "CSE",
		FacultyID: "F001",
		Hour:      intPtr(10),
		Records: []attendance.MarkRecord{
			{StudentID: "S001", Status: attendance.StatusPresent},
			{StudentID: "S002", Status: attendance.StatusAbsent},
			{StudentID: "", Status: attendance.StatusPresent}, // rejected, not fatal
		},
	})
	req, rec := newRequest(http.MethodPost, "/v1/attendance", body)
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("POST /v1/attendance code = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	var res attendance.BatchResult
	decodeBody(t, rec, &res)
	if res.Accepted != 2 || len(res.Rejected) != 1 {
		t.Errorf("batch result = %+v, want 2 accepted / 1 rejected", res)
	}

	if _, err := repo.GetRecord(req.Context(), attendance.Key{Date: "2026-08-03", StudentID: "S001", Subject: "Mathematics", Hour: 10}); err != nil {
		t.Errorf("accepted record not persisted: %v", err)
	}
}

func Test_attendanceApi_markBatch_validation(t *testing.T) {
	app, _ := setup(t)

	tests := []struct {
		name       string
		body       []byte
		wantFields []string
	}{
		{
			name:       "missing everything",
			body:       []byte(`{}`),
			wantFields: []string{"date", "subject", "faculty_id", "records"},
		},
		{
			name: "bad date and hour",
			body: marchallObj(t, attendance.MarkSession{
				Date:      "03/08/2026",
				Subject:   "Mathematics",
				FacultyID: "F001",
				Hour:      intPtr(25),
				Records:   []attendance.MarkRecord{{StudentID: "S001", Status: attendance.StatusPresent}},
			}),
			wantFields: []string{"date", "hour"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/attendance", tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("code = %d, want 400\nbody: %s", rec.Code, rec.Body.String())
			}
			var fields map[string]string
			decodeBody(t, rec, &fields)
			for _, fld := range tt.wantFields {
				if _, ok := fields[fld]; !ok {
					t.Errorf("field %q missing from error response: %v", fld, fields)
				}
			}
		})
	}
}

func Test_attendanceApi_query(t *testing.T) {
	app, repo := setup(t)

	testutil.CreateRecord(t, repo, "2026-08-03", "S001", "Mathematics", "F001", 8, attendance.StatusPresent)
	testutil.CreateRecord(t, repo, "2026-08-03", "S002", "Physics", "F002", 9, attendance.StatusAbsent)

	req, rec := newRequest(http.MethodGet, "/v1/attendance?date=2026-08-03&subject=Mathematics")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Count int                 `json:"count"`
		Data  []attendance.Record `json:"data"`
	}
	decodeBody(t, rec, &res)
	if res.Count != 1 || res.Data[0].StudentID != "S001" {
		t.Errorf("register = %+v, want one Mathematics record", res)
	}
}

func Test_attendanceApi_query_badParams(t *testing.T) {
	app, _ := setup(t)

	for _, path := range []string{
		"/v1/attendance?date=not-a-date",
		"/v1/attendance?hour=24",
		"/v1/attendance?hour=lol",
		"/v1/analytics/daily-trends?days=lol",
		"/v1/analytics/daily-trends?as_of=03/08/2026",
	} {
		req, rec := newRequest(http.MethodGet, path)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s code = %d, want 400", path, rec.Code)
		}
	}
}

func Test_attendanceApi_studentAttendance(t *testing.T) {
	app, repo := setup(t)

	testutil.CreateRecord(t, repo, "2026-08-03", "S001", "Mathematics", "F001", 8, attendance.StatusPresent)
	testutil.CreateRecord(t, repo, "2026-08-03", "S001", "Physics", "F002", 9, attendance.StatusAbsent)

	req, rec := newRequest(http.MethodGet, "/v1/attendance/students/S001")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	var sa attendance.StudentAttendance
	decodeBody(t, rec, &sa)
	if sa.StudentID != "S001" || sa.OverallPercentage != 50 || len(sa.Daily) != 1 {
		t.Errorf("student view = %+v, want 50%% over one day", sa)
	}
}

func Test_attendanceApi_facultyRecords(t *testing.T) {
	app, repo := setup(t)

	testutil.CreateRecord(t, repo, "2026-08-03", "S001", "Mathematics", "F001", 8, attendance.StatusPresent)
	testutil.CreateRecord(t, repo, "2026-08-03", "S001", "Physics", "F002", 9, attendance.StatusAbsent)

	req, rec := newRequest(http.MethodGet, "/v1/attendance/faculty/F001")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &res)
	if res.Count != 1 {
		t.Errorf("faculty records count = %d, want 1", res.Count)
	}
}

func Test_attendanceApi_analytics(t *testing.T) {
	app, repo := setup(t)

	class := attendance.ClassKey{Section: "A", Year: "2", Branch: "CSE"}
	testutil.CreateRecord(t, repo, "2026-08-03", "S001", "Mathematics", "F001", 10, attendance.StatusPresent, class)
	testutil.CreateRecord(t, repo, "2026-08-03", "S002", "Mathematics", "F001", 10, attendance.StatusAbsent, class)

	t.Run("overview", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/analytics/overview")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want 200", rec.Code)
		}
		var ov attendance.Overview
		decodeBody(t, rec, &ov)
		if ov.TotalRecords != 2 || ov.OverallAttendancePercent != 50 {
			t.Errorf("overview = %+v", ov)
		}
	})

	t.Run("low attendance", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/analytics/low-attendance")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want 200", rec.Code)
		}
		var rep attendance.LowAttendanceReport
		decodeBody(t, rec, &rep)
		if rep.Count != 1 || rep.Data[0].Severity != attendance.SeverityCritical {
			t.Errorf("low attendance = %+v", rep)
		}
	})

	t.Run("daily trends with window", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/analytics/daily-trends?as_of=2026-08-04&days=2")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want 200", rec.Code)
		}
		var rep attendance.DailyTrendsReport
		decodeBody(t, rec, &rep)
		if rep.WindowDays != 2 || rep.Count != 1 || rep.AverageAttendance != 50 {
			t.Errorf("daily trends = %+v", rep)
		}
	})

	t.Run("empty rollups are well-formed", func(t *testing.T) {
		empty, _ := setup(t)
		for _, path := range []string{
			"/v1/analytics/overview",
			"/v1/analytics/faculty-activity",
			"/v1/analytics/class-attendance",
			"/v1/analytics/low-attendance",
			"/v1/analytics/student-performance",
			"/v1/analytics/hourly-trends",
			"/v1/analytics/daily-trends",
			"/v1/analytics/department-summary",
		} {
			req, rec := newRequest(http.MethodGet, path)
			empty.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Errorf("GET %s on empty store code = %d, want 200", path, rec.Code)
			}
		}
	})
}

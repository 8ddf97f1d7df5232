package attendance

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// The eight rollup views. Each one is an explicit filter -> group-by-key ->
// reduce pass over the record set, sharing the Policy for every percentage
// so the views cannot disagree. Rankings break percentage ties by entity
// identifier to keep output deterministic across runs.

// Overview reduces the whole record set to global counts and the
// hour-weighted overall percentage.
func (svc *Service) Overview(ctx context.Context) (Overview, error) {
	var ov Overview

	records, err := svc.records(ctx, Filter{}, "Overview")
	if err != nil {
		return ov, err
	}

	for i := range records {
		ov.TotalRecords++
		if records[i].Status == StatusPresent {
			ov.PresentCount++
		} else {
			ov.AbsentCount++
		}
	}
	ov.OverallAttendancePercent = svc.policy.Percent(ov.PresentCount, ov.TotalRecords)
	return ov, nil
}

// FacultyActivity groups by faculty: records marked, distinct dates marked,
// distinct subjects marked.
func (svc *Service) FacultyActivity(ctx context.Context) (FacultyActivityReport, error) {
	rep := FacultyActivityReport{Data: make([]FacultyActivity, 0)}

	records, err := svc.records(ctx, Filter{}, "FacultyActivity")
	if err != nil {
		return rep, err
	}

	type facultyAgg struct {
		FacultyActivity
		dates    map[string]bool
		subjects map[string]bool
	}
	groups := make(map[string]*facultyAgg)

	for i := range records {
		rec := &records[i]
		agg, ok := groups[rec.FacultyID]
		if !ok {
			agg = &facultyAgg{
				FacultyActivity: FacultyActivity{FacultyID: rec.FacultyID, FacultyName: rec.FacultyName},
				dates:           make(map[string]bool),
				subjects:        make(map[string]bool),
			}
			groups[rec.FacultyID] = agg
		}
		agg.RecordsMarked++
		agg.dates[rec.Date.Format(DateFormat)] = true
		agg.subjects[rec.Subject] = true
	}
	if err = checkDeadline(ctx, "FacultyActivity"); err != nil {
		return rep, err
	}

	for _, agg := range groups {
		agg.DatesMarked = len(agg.dates)
		agg.SubjectsMarked = len(agg.subjects)
		rep.Data = append(rep.Data, agg.FacultyActivity)
	}
	sort.Slice(rep.Data, func(i, j int) bool { return rep.Data[i].FacultyID < rep.Data[j].FacultyID })
	rep.Count = len(rep.Data)
	return rep, nil
}

// ClassAttendance groups by (subject, section, year, branch): distinct
// student count and the class's hour-weighted percentage.
func (svc *Service) ClassAttendance(ctx context.Context, filter Filter) (ClassAttendanceReport, error) {
	rep := ClassAttendanceReport{Data: make([]ClassAttendance, 0)}

	filter.Clean()
	records, err := svc.records(ctx, filter, "ClassAttendance")
	if err != nil {
		return rep, err
	}

	groups, order, err := svc.groupClasses(ctx, records, "ClassAttendance")
	if err != nil {
		return rep, err
	}
	for _, key := range order {
		rep.Data = append(rep.Data, groups[key].view(svc.policy))
	}
	rep.Count = len(rep.Data)
	return rep, nil
}

// LowAttendance filters the class rollup down to classes below the cutoff,
// graded by how far below they sit.
func (svc *Service) LowAttendance(ctx context.Context, filter Filter) (LowAttendanceReport, error) {
	rep := LowAttendanceReport{
		Cutoff: svc.policy.LowAttendanceCutoff,
		Data:   make([]LowAttendanceClass, 0),
	}

	classes, err := svc.ClassAttendance(ctx, filter)
	if err != nil {
		return rep, err
	}

	for _, cls := range classes.Data {
		if !svc.policy.Low(cls.AttendancePercent) {
			continue
		}
		rep.Data = append(rep.Data, LowAttendanceClass{
			ClassAttendance: cls,
			Severity:        svc.policy.Severity(cls.AttendancePercent),
		})
	}
	rep.Count = len(rep.Data)
	return rep, nil
}

// StudentPerformance groups by student on the same hour-weighted formula as
// the daily classifier, tallies classifications, and ranks the bounded
// top/bottom performers.
func (svc *Service) StudentPerformance(ctx context.Context) (StudentPerformanceReport, error) {
	rep := StudentPerformanceReport{
		TopPerformers: make([]StudentRank, 0, svc.policy.TopLimit),
		Struggling:    make([]StudentRank, 0, svc.policy.TopLimit),
	}

	records, err := svc.records(ctx, Filter{}, "StudentPerformance")
	if err != nil {
		return rep, err
	}

	type studentAgg struct {
		name string
		recs []*Record
	}
	groups := make(map[string]*studentAgg)

	for i := range records {
		rec := &records[i]
		agg, ok := groups[rec.StudentID]
		if !ok {
			agg = &studentAgg{name: rec.StudentName}
			groups[rec.StudentID] = agg
		}
		agg.recs = append(agg.recs, rec)
	}
	if err = checkDeadline(ctx, "StudentPerformance"); err != nil {
		return rep, err
	}

	ranks := make([]StudentRank, 0, len(groups))
	for id, agg := range groups {
		// same distinct-slot reduction as StudentAttendance
		pct := svc.policy.Percent(countHourSlots(agg.recs))
		cls := svc.policy.Classify(pct)
		switch cls {
		case ClassRegular:
			rep.RegularStudents++
		case ClassIrregular:
			rep.IrregularStudents++
		default:
			rep.AbsentStudents++
		}
		ranks = append(ranks, StudentRank{
			StudentID:         id,
			StudentName:       agg.name,
			AttendancePercent: pct,
			Classification:    cls,
		})
	}
	rep.TotalStudents = len(ranks)

	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].AttendancePercent != ranks[j].AttendancePercent {
			return ranks[i].AttendancePercent > ranks[j].AttendancePercent
		}
		return ranks[i].StudentID < ranks[j].StudentID
	})
	rep.TopPerformers = append(rep.TopPerformers, ranks[:min(svc.policy.TopLimit, len(ranks))]...)

	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].AttendancePercent != ranks[j].AttendancePercent {
			return ranks[i].AttendancePercent < ranks[j].AttendancePercent
		}
		return ranks[i].StudentID < ranks[j].StudentID
	})
	rep.Struggling = append(rep.Struggling, ranks[:min(svc.policy.TopLimit, len(ranks))]...)

	return rep, nil
}

// HourlyTrends groups by hour-of-day across all dates and subjects and
// reports the hour(s) with the highest percentage.
func (svc *Service) HourlyTrends(ctx context.Context) (HourlyTrendsReport, error) {
	rep := HourlyTrendsReport{
		PeakHours: make([]int, 0),
		Data:      make([]HourlyTrend, 0),
	}

	records, err := svc.records(ctx, Filter{}, "HourlyTrends")
	if err != nil {
		return rep, err
	}

	type hourAgg struct{ present, total int }
	groups := make(map[int]*hourAgg)

	for i := range records {
		rec := &records[i]
		agg, ok := groups[rec.Hour]
		if !ok {
			agg = &hourAgg{}
			groups[rec.Hour] = agg
		}
		agg.total++
		if rec.Status == StatusPresent {
			agg.present++
		}
	}
	if err = checkDeadline(ctx, "HourlyTrends"); err != nil {
		return rep, err
	}

	peak := -1
	for hour, agg := range groups {
		pct := svc.policy.Percent(agg.present, agg.total)
		rep.Data = append(rep.Data, HourlyTrend{
			Hour:              hour,
			TimeLabel:         timeLabel(hour),
			TotalRecords:      agg.total,
			AttendancePercent: pct,
		})
		if pct > peak {
			peak = pct
		}
	}
	sort.Slice(rep.Data, func(i, j int) bool { return rep.Data[i].Hour < rep.Data[j].Hour })
	rep.Count = len(rep.Data)

	for _, trend := range rep.Data {
		if trend.AttendancePercent == peak {
			rep.PeakHours = append(rep.PeakHours, trend.Hour)
		}
	}
	return rep, nil
}

// DailyTrends groups by date within the trailing window ending at `asOf`
// (inclusive). Both the as-of date and the window length are explicit so the
// engine stays deterministic; `days <= 0` falls back to the policy default.
func (svc *Service) DailyTrends(ctx context.Context, asOf time.Time, days int) (DailyTrendsReport, error) {
	if days <= 0 {
		days = svc.policy.TrendWindowDays
	}
	rep := DailyTrendsReport{
		WindowDays: days,
		Data:       make([]DailyTrend, 0),
	}

	asOf = NormalizeDate(asOf)
	from := asOf.AddDate(0, 0, -(days - 1))
	records, err := svc.records(ctx, Filter{DateFrom: from, DateTo: asOf}, "DailyTrends")
	if err != nil {
		return rep, err
	}

	type dayAgg struct{ present, total int }
	groups := make(map[string]*dayAgg)

	for i := range records {
		rec := &records[i]
		date := rec.Date.Format(DateFormat)
		agg, ok := groups[date]
		if !ok {
			agg = &dayAgg{}
			groups[date] = agg
		}
		agg.total++
		if rec.Status == StatusPresent {
			agg.present++
		}
	}
	if err = checkDeadline(ctx, "DailyTrends"); err != nil {
		return rep, err
	}

	var pctSum int
	for date, agg := range groups {
		pct := svc.policy.Percent(agg.present, agg.total)
		pctSum += pct
		rep.Data = append(rep.Data, DailyTrend{
			Date:              date,
			TotalRecords:      agg.total,
			AttendancePercent: pct,
		})
	}
	sort.Slice(rep.Data, func(i, j int) bool { return rep.Data[i].Date < rep.Data[j].Date })
	rep.Count = len(rep.Data)
	if rep.Count > 0 {
		rep.AverageAttendance = svc.policy.Round(float64(pctSum) / float64(rep.Count))
	}
	return rep, nil
}

// DepartmentSummary groups by branch: percentage, distinct students and
// distinct (subject, section, year) classes.
func (svc *Service) DepartmentSummary(ctx context.Context) (DepartmentSummaryReport, error) {
	rep := DepartmentSummaryReport{Data: make([]DepartmentSummary, 0)}

	records, err := svc.records(ctx, Filter{}, "DepartmentSummary")
	if err != nil {
		return rep, err
	}

	type deptAgg struct {
		students map[string]bool
		classes  map[string]bool
		present  int
		total    int
	}
	groups := make(map[string]*deptAgg)

	for i := range records {
		rec := &records[i]
		agg, ok := groups[rec.Branch]
		if !ok {
			agg = &deptAgg{
				students: make(map[string]bool),
				classes:  make(map[string]bool),
			}
			groups[rec.Branch] = agg
		}
		agg.total++
		if rec.Status == StatusPresent {
			agg.present++
		}
		agg.students[rec.StudentID] = true
		agg.classes[rec.Subject+"\x00"+rec.Section+"\x00"+rec.Year] = true
	}
	if err = checkDeadline(ctx, "DepartmentSummary"); err != nil {
		return rep, err
	}

	for branch, agg := range groups {
		rep.Data = append(rep.Data, DepartmentSummary{
			Branch:            branch,
			StudentCount:      len(agg.students),
			ClassCount:        len(agg.classes),
			TotalRecords:      agg.total,
			AttendancePercent: svc.policy.Percent(agg.present, agg.total),
		})
	}
	sort.Slice(rep.Data, func(i, j int) bool { return rep.Data[i].Branch < rep.Data[j].Branch })
	rep.Count = len(rep.Data)
	return rep, nil
}

// shared class grouping

type classAgg struct {
	key      ClassKey
	students map[string]bool
	present  int
	total    int
}

func (agg *classAgg) view(policy Policy) ClassAttendance {
	return ClassAttendance{
		ClassKey:          agg.key,
		StudentCount:      len(agg.students),
		TotalRecords:      agg.total,
		AttendancePercent: policy.Percent(agg.present, agg.total),
	}
}

func (svc *Service) groupClasses(ctx context.Context, records []Record, op string) (map[ClassKey]*classAgg, []ClassKey, error) {
	groups := make(map[ClassKey]*classAgg)

	for i := range records {
		rec := &records[i]
		key := ClassKey{Subject: rec.Subject, Section: rec.Section, Year: rec.Year, Branch: rec.Branch}
		agg, ok := groups[key]
		if !ok {
			agg = &classAgg{key: key, students: make(map[string]bool)}
			groups[key] = agg
		}
		agg.total++
		if rec.Status == StatusPresent {
			agg.present++
		}
		agg.students[rec.StudentID] = true
	}
	if err := checkDeadline(ctx, op); err != nil {
		return nil, nil, err
	}

	order := make([]ClassKey, 0, len(groups))
	for key := range groups {
		order = append(order, key)
	}
	sort.Slice(order, func(i, j int) bool { return classKeyLess(order[i], order[j]) })
	return groups, order, nil
}

func classKeyLess(a, b ClassKey) bool {
	if a.Subject != b.Subject {
		return a.Subject < b.Subject
	}
	if a.Section != b.Section {
		return a.Section < b.Section
	}
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	return a.Branch < b.Branch
}

func timeLabel(hour int) string {
	return fmt.Sprintf("%02d:00 - %02d:00", hour, (hour+1)%24)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

package attendance

import (
	"math"

	"github.com/trezcool/mahudhurio/core"
)

type RoundingMode string

const (
	RoundHalfUp   RoundingMode = "half-up"
	RoundTruncate RoundingMode = "truncate"
)

// Severities of a low-attendance flag.
const (
	SeverityCritical = "Critical"
	SeverityWarning  = "Warning"
)

// Policy centralizes every percentage cut-point so the daily classifier and
// all rollups agree even as thresholds evolve. The low-attendance cutoff is
// deliberately distinct from the classification cut-points: it flags classes,
// not individual student-days.
type Policy struct {
	RegularMin          int
	IrregularMin        int
	LowAttendanceCutoff int
	CriticalMargin      int
	TopLimit            int
	TrendWindowDays     int
	Rounding            RoundingMode
}

func NewPolicy(conf *core.Config) Policy {
	p := Policy{
		RegularMin:          conf.Attendance.RegularMin,
		IrregularMin:        conf.Attendance.IrregularMin,
		LowAttendanceCutoff: conf.Attendance.LowAttendanceCutoff,
		CriticalMargin:      conf.Attendance.CriticalMargin,
		TopLimit:            conf.Attendance.TopLimit,
		TrendWindowDays:     conf.Attendance.TrendWindowDays,
		Rounding:            RoundingMode(conf.Attendance.RoundingMode),
	}
	if p.Rounding != RoundTruncate {
		p.Rounding = RoundHalfUp
	}
	return p
}

func DefaultPolicy() Policy {
	return Policy{
		RegularMin:          75,
		IrregularMin:        40,
		LowAttendanceCutoff: 70,
		CriticalMargin:      20,
		TopLimit:            5,
		TrendWindowDays:     30,
		Rounding:            RoundHalfUp,
	}
}

// Round converts a raw percentage to an integer under the policy's rounding
// mode. All percentage math goes through it, averages included.
func (p Policy) Round(pct float64) int {
	if p.Rounding == RoundTruncate {
		return int(pct)
	}
	return int(math.Floor(pct + 0.5)) // ties round half up
}

// Percent computes the hour-weighted percentage present/total as an integer
// 0-100. Zero total yields 0.
func (p Policy) Percent(present, total int) int {
	if total <= 0 {
		return 0
	}
	return p.Round(float64(present) / float64(total) * 100)
}

func (p Policy) Classify(percentage int) Classification {
	switch {
	case percentage >= p.RegularMin:
		return ClassRegular
	case percentage >= p.IrregularMin:
		return ClassIrregular
	default:
		return ClassAbsent
	}
}

// Low reports whether a class percentage falls below the alert cutoff.
func (p Policy) Low(percentage int) bool {
	return percentage < p.LowAttendanceCutoff
}

// Severity grades a low percentage by how far below the cutoff it sits.
// Only meaningful for percentages where Low() holds.
func (p Policy) Severity(percentage int) string {
	if percentage < p.LowAttendanceCutoff-p.CriticalMargin {
		return SeverityCritical
	}
	return SeverityWarning
}

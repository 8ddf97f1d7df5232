package attendance

import (
	"context"
	"net/mail"

	"github.com/trezcool/mahudhurio/core"
)

var lowAttendanceTmplName = "low-attendance-alert"

func init() {
	core.RegisterEmailTemplate(lowAttendanceTmplName, `The following classes are below the {{.Cutoff}}% attendance cutoff:
{{range .Data}}
- {{.Subject}} | section {{.Section}} | year {{.Year}} | {{.Branch}}: {{.AttendancePercent}}% ({{.StudentCount}} students) [{{.Severity}}]{{end}}

Flagged classes: {{.Count}}
`)
}

// LowAttendanceAlert runs the low-attendance rollup and renders it as an
// email to `to`. Returns nil when no class is below the cutoff.
func (svc *Service) LowAttendanceAlert(ctx context.Context, to ...mail.Address) (*core.EmailMessage, error) {
	rep, err := svc.LowAttendance(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	if rep.Count == 0 {
		return nil, nil
	}
	return &core.EmailMessage{
		To:           to,
		Subject:      "Low attendance alert",
		TemplateName: lowAttendanceTmplName,
		TemplateData: rep,
	}, nil
}

package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceApi struct {
	svc *attendance.Service
}

func registerAttendanceAPI(g *echo.Group, svc *attendance.Service) {
	api := attendanceApi{svc: svc}

	ag := g.Group("/attendance")
	ag.POST("", api.markBatch)
	ag.GET("", api.query)
	ag.GET("/students/:id", api.studentAttendance)
	ag.GET("/faculty/:id", api.facultyRecords)

	an := g.Group("/analytics")
	an.GET("/overview", api.overview)
	an.GET("/faculty-activity", api.facultyActivity)
	an.GET("/class-attendance", api.classAttendance)
	an.GET("/low-attendance", api.lowAttendance)
	an.GET("/student-performance", api.studentPerformance)
	an.GET("/hourly-trends", api.hourlyTrends)
	an.GET("/daily-trends", api.dailyTrends)
	an.GET("/department-summary", api.departmentSummary)
}

// Handlers

// markBatch processes a faculty marking batch. The response is 200 even when
// some records were rejected; callers check `rejected` per record.
func (api *attendanceApi) markBatch(ctx echo.Context) error {
	var data attendance.MarkSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkSession")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	res, err := api.svc.MarkBatch(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	filter, err := bindFilter(ctx)
	if err != nil {
		return err
	}

	records, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"count": len(records), "data": records})
}

func (api *attendanceApi) studentAttendance(ctx echo.Context) error {
	from, err := dateParam(ctx, "from")
	if err != nil {
		return err
	}
	to, err := dateParam(ctx, "to")
	if err != nil {
		return err
	}

	sa, err := api.svc.StudentAttendance(ctx.Request().Context(), ctx.Param("id"), from, to)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sa)
}

func (api *attendanceApi) facultyRecords(ctx echo.Context) error {
	records, err := api.svc.FacultyRecords(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"count": len(records), "data": records})
}

func (api *attendanceApi) overview(ctx echo.Context) error {
	ov, err := api.svc.Overview(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ov)
}

func (api *attendanceApi) facultyActivity(ctx echo.Context) error {
	rep, err := api.svc.FacultyActivity(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *attendanceApi) classAttendance(ctx echo.Context) error {
	filter, err := bindFilter(ctx)
	if err != nil {
		return err
	}

	rep, err := api.svc.ClassAttendance(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *attendanceApi) lowAttendance(ctx echo.Context) error {
	filter, err := bindFilter(ctx)
	if err != nil {
		return err
	}

	rep, err := api.svc.LowAttendance(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *attendanceApi) studentPerformance(ctx echo.Context) error {
	rep, err := api.svc.StudentPerformance(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *attendanceApi) hourlyTrends(ctx echo.Context) error {
	rep, err := api.svc.HourlyTrends(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *attendanceApi) dailyTrends(ctx echo.Context) error {
	asOf, err := dateParam(ctx, "as_of")
	if err != nil {
		return err
	}
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	days, err := intParam(ctx, "days")
	if err != nil {
		return err
	}

	rep, err := api.svc.DailyTrends(ctx.Request().Context(), asOf, days)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *attendanceApi) departmentSummary(ctx echo.Context) error {
	rep, err := api.svc.DepartmentSummary(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rep)
}

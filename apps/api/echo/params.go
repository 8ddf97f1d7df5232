package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/mahudhurio/core/attendance"
)

// bindFilter binds query parameters to an attendance.Filter.
// Dates use the YYYY-MM-DD wire format; a malformed value is a 400.
func bindFilter(ctx echo.Context) (attendance.Filter, error) {
	var filter attendance.Filter
	var err error

	if filter.Date, err = dateParam(ctx, "date"); err != nil {
		return filter, err
	}
	if filter.DateFrom, err = dateParam(ctx, "date_from"); err != nil {
		return filter, err
	}
	if filter.DateTo, err = dateParam(ctx, "date_to"); err != nil {
		return filter, err
	}

	filter.StudentID = ctx.QueryParam("student_id")
	filter.Subject = ctx.QueryParam("subject")
	filter.Section = ctx.QueryParam("section")
	filter.Year = ctx.QueryParam("year")
	filter.Branch = ctx.QueryParam("branch")
	filter.FacultyID = ctx.QueryParam("faculty_id")

	if val := ctx.QueryParam("hour"); val != "" {
		hour, err := strconv.Atoi(val)
		if err != nil || hour < 0 || hour > 23 {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "hour must be an integer between 0 and 23")
		}
		filter.Hour = &hour
	}
	return filter, nil
}

func dateParam(ctx echo.Context, name string) (time.Time, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return time.Time{}, nil
	}
	date, err := time.Parse(attendance.DateFormat, val)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, name+" must be a date in YYYY-MM-DD format")
	}
	return date, nil
}

func intParam(ctx echo.Context, name string) (int, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
	}
	return n, nil
}

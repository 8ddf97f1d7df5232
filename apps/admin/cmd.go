package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db      *sql.DB
	svc     *attendance.Service
	mailSvc core.EmailService
	conf    *core.Config
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate SUBCOMMAND [ARGS] - manage DB migrations (up, down, status, ...)")
	fmt.Println("  lowattendance - email the low-attendance report to the admin")
	fmt.Println("  purge -date DATE [-student_id ID] [-subject SUBJECT] [-faculty_id ID] - delete attendance records")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	purgeCmd := flag.NewFlagSet("purge", flag.ExitOnError)
	purgeDate := purgeCmd.String("date", "", "The session date (YYYY-MM-DD). Required.")
	purgeStudent := purgeCmd.String("student_id", "", "Restrict the purge to this student.")
	purgeSubject := purgeCmd.String("subject", "", "Restrict the purge to this subject.")
	purgeFaculty := purgeCmd.String("faculty_id", "", "Restrict the purge to records marked by this faculty member.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "lowattendance":
		return cli.lowAttendance()
	case "purge":
		if err := purgeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *purgeDate == "" {
			purgeCmd.Usage()
			return errHelp
		}
		date, err := time.Parse(attendance.DateFormat, *purgeDate)
		if err != nil {
			return fmt.Errorf("date must be in YYYY-MM-DD format (got %q)", *purgeDate)
		}
		return cli.purge(attendance.Filter{
			Date:      date,
			StudentID: *purgeStudent,
			Subject:   *purgeSubject,
			FacultyID: *purgeFaculty,
		})
	default:
		cli.printUsage()
		return errHelp
	}
}

package main

import (
	"context"
	"fmt"
	"net/mail"
)

func (cli *commandLine) lowAttendance() error {
	msg, err := cli.svc.LowAttendanceAlert(context.Background(), mail.Address{Address: cli.conf.AdminEmail})
	if err != nil {
		return err
	}
	if msg == nil {
		fmt.Println("no classes below the attendance cutoff")
		return nil
	}
	cli.mailSvc.SendMessages(msg)
	fmt.Printf("low-attendance report sent to %s\n", cli.conf.AdminEmail)
	return nil
}

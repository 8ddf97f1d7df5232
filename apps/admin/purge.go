package main

import (
	"context"
	"fmt"

	"github.com/trezcool/mahudhurio/core/attendance"
)

func (cli *commandLine) purge(filter attendance.Filter) error {
	ctx := context.Background()
	records, err := cli.svc.Query(ctx, filter)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no matching records")
		return nil
	}

	keys := make([]attendance.Key, 0, len(records))
	for _, rec := range records {
		keys = append(keys, rec.Key())
	}
	if err := cli.svc.DeleteRecords(ctx, keys...); err != nil {
		return err
	}
	fmt.Printf("deleted %d record(s)\n", len(keys))
	return nil
}

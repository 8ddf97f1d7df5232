package dummydb

import (
	"sync"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type (
	DB struct {
		attendance *recordTable
	}

	recordTable struct {
		sync.RWMutex
		table map[attendance.Key]*attendance.Record
	}
)

func Open() (*DB, error) {
	db := &DB{
		attendance: &recordTable{table: make(map[attendance.Key]*attendance.Record)},
	}
	return db, nil
}

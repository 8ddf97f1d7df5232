package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceRepository struct {
	db *recordTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db.attendance}
}

// UpsertRecord is atomic per key: the whole check-and-write happens under the
// table write lock, so concurrent upserts to the same key serialize
// (last-write-wins) and never interleave field updates.
func (repo *attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	if err := rec.CheckRequired(); err != nil {
		return attendance.Record{}, err
	}
	rec.Date = attendance.NormalizeDate(rec.Date)
	now := time.Now().UTC()

	repo.db.Lock()
	defer repo.db.Unlock()

	if orig, ok := repo.db.table[rec.Key()]; ok {
		orig.Status = rec.Status
		orig.Remarks = rec.Remarks
		orig.FacultyID = rec.FacultyID
		orig.FacultyName = rec.FacultyName
		if rec.StudentName != "" {
			orig.StudentName = rec.StudentName
		}
		orig.UpdatedAt = now
		return *orig, nil
	}

	rec.ID = uuid.New().String()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	repo.db.table[rec.Key()] = &rec
	return rec, nil
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, key attendance.Key) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[key]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) FilterRecords(ctx context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]attendance.Record, 0, len(repo.db.table))
	for _, rec := range repo.db.table {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if filter.Match(rec) {
			records = append(records, *rec)
		}
	}
	return records, nil
}

func (repo *attendanceRepository) DeleteRecords(ctx context.Context, keys ...attendance.Key) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, key := range keys {
		delete(repo.db.table, key)
	}
	return nil
}

// Package dummydb provides in-memory repositories for tests.
package dummydb

import (
	"context"
	"database/sql"
	"sync"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/absence"
	"github.com/trezcool/darasa/core/lesson"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/timekeeping"
	"github.com/trezcool/darasa/core/user"
)

type (
	DB struct {
		user        *userTable
		school      *schoolTables
		lesson      *lessonTable
		absence     *absenceTable
		timekeeping *timekeepingTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	schoolTables struct {
		sync.RWMutex
		classrooms map[string]*school.Classroom
		courses    map[string]*school.Course
		subjects   map[string]*school.Subject
		syllabi    map[string]*school.Syllabus
		lectures   map[string]*school.Lecture
	}

	lessonTable struct {
		sync.RWMutex
		table map[string]*lesson.Lesson
	}

	absenceTable struct {
		sync.RWMutex
		table map[string]*absence.Request
	}

	timekeepingTable struct {
		sync.RWMutex
		table map[string]*timekeeping.Record
	}
)

var _ core.DB = (*DB)(nil)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		school: &schoolTables{
			classrooms: make(map[string]*school.Classroom),
			courses:    make(map[string]*school.Course),
			subjects:   make(map[string]*school.Subject),
			syllabi:    make(map[string]*school.Syllabus),
			lectures:   make(map[string]*school.Lecture),
		},
		lesson:      &lessonTable{table: make(map[string]*lesson.Lesson)},
		absence:     &absenceTable{table: make(map[string]*absence.Request)},
		timekeeping: &timekeepingTable{table: make(map[string]*timekeeping.Record)},
	}
	return db, nil
}

// The repositories guard their own tables, so the core.DB surface is a no-op:
// queries never reach it and transactions have nothing to roll back.

func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) { return nil, nil }
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) { return nil, nil }
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row { return nil }
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (core.DBTransactor, error) {
	return &tx{DB: db}, nil
}

type tx struct {
	*DB
}

func (t *tx) Commit() error   { return nil }
func (t *tx) Rollback() error { return nil }

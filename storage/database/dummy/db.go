package dummydb

import (
	"sync"

	"github.com/renshulabs/academy/core/admin"
	"github.com/renshulabs/academy/core/event"
	"github.com/renshulabs/academy/core/fee"
	"github.com/renshulabs/academy/core/progress"
	"github.com/renshulabs/academy/core/student"
)

type (
	DB struct {
		student  *studentTable
		fee      *feeTable
		progress *progressTable
		admin    *adminTable
		event    *eventTable
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
	}

	feeTable struct {
		sync.RWMutex
		table map[string]*fee.Fee
	}

	progressTable struct {
		sync.RWMutex
		table   map[string]*progress.Progress // keyed on studentID + "|" + program
		entries []progress.Entry
	}

	adminTable struct {
		sync.RWMutex
		table map[string]*admin.Admin // keyed on lowercase email
	}

	eventTable struct {
		sync.RWMutex
		table map[string]*event.Event
	}
)

func Open() (*DB, error) {
	db := &DB{
		student:  &studentTable{table: make(map[string]*student.Student)},
		fee:      &feeTable{table: make(map[string]*fee.Fee)},
		progress: &progressTable{table: make(map[string]*progress.Progress)},
		admin:    &adminTable{table: make(map[string]*admin.Admin)},
		event:    &eventTable{table: make(map[string]*event.Event)},
	}
	return db, nil
}

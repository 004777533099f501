package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecordItem is a single note within a day.
type RecordItem struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DayRecord aggregates all notes for one calendar day. It is the unit of
// persistence and of cloud sync; ID doubles as the cloud record key.
type DayRecord struct {
	ID        string       `json:"id"`
	Date      time.Time    `json:"date"`
	Records   []RecordItem `json:"records"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// NewRecordItem creates a note with a fresh ID and UTC timestamps.
func NewRecordItem(content string) RecordItem {
	now := time.Now().UTC()
	return RecordItem{
		ID:        uuid.NewString(),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewDayRecord creates an empty aggregate for the given day.
func NewDayRecord(date time.Time) *DayRecord {
	now := time.Now().UTC()
	return &DayRecord{
		ID:        uuid.NewString(),
		Date:      date,
		Records:   []RecordItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasRecords reports whether the day holds at least one note with
// non-empty trimmed content. Whitespace-only notes do not count.
func (d *DayRecord) HasRecords() bool {
	for _, r := range d.Records {
		if strings.TrimSpace(r.Content) != "" {
			return true
		}
	}
	return false
}

// FindRecord returns the index of the note with the given ID, or -1.
func (d *DayRecord) FindRecord(itemID string) int {
	for i := range d.Records {
		if d.Records[i].ID == itemID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy; the records slice is never shared.
func (d *DayRecord) Clone() DayRecord {
	out := *d
	out.Records = make([]RecordItem, len(d.Records))
	copy(out.Records, d.Records)
	return out
}

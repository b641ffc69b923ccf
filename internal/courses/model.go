package courses

import "time"

const defaultCategory = "General"

// Course is a catalogue entry. Fees are in rupees.
type Course struct {
	ID           string
	Title        string
	Description  string
	Duration     string
	Fees         int64
	Category     string
	LimitedSeats int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Input is the editable part of a course.
type Input struct {
	Title        string
	Description  string
	Duration     string
	Fees         int64
	Category     string
	LimitedSeats int
}

package model

// Slot is one bookable half-hour window in an availability response.
type Slot struct {
	Time     string `json:"time"`
	IsBooked bool   `json:"is_booked"`
}

// DaySlots groups the candidate slots of a single calendar day. The list is
// recomputed on every availability query and never persisted.
type DaySlots struct {
	DateKey string `json:"date_key"`
	Weekday string `json:"weekday"`
	Slots   []Slot `json:"slots"`
}

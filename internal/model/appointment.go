package model

import "time"

// Appointment is a booked donation slot.
type Appointment struct {
	ID          uint64
	UserID      uint64
	ScheduledOn time.Time // calendar date
	Time        string    // HH:MM, local to the centre
	Location    string
	CreatedAt   time.Time
}

// SupportQuery is a ticket submitted from the support page.
type SupportQuery struct {
	ID        uint64
	Reference string
	UserID    uint64
	Type      string // Medical or Technical
	Subject   string
	Message   string
	CreatedAt time.Time
}

// ContactMessage is an unauthenticated message from the contact form.
type ContactMessage struct {
	ID        uint64
	Name      string
	Email     string
	Message   string
	CreatedAt time.Time
}

// ActivityItem is one entry of a user's recent activity feed.
type ActivityItem struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

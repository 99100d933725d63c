package domain

import (
	"fmt"
	"time"
)

// User is a person we may owe a birthday notification. ScheduledYear and
// NotifiedYear record the year of the birthday occurrence the flag was set
// for, so both flags "reset" automatically when the next occurrence rolls
// around without a nightly cleanup job.
type User struct {
	ID            string
	FirstName     string
	LastName      string
	Email         string
	BirthDate     time.Time
	Location      string
	ScheduledYear *int
	NotifiedYear  *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ScheduledFor reports whether a notification task has already been enqueued
// for this user's birthday occurrence in the given year.
func (u *User) ScheduledFor(year int) bool {
	return u.ScheduledYear != nil && *u.ScheduledYear >= year
}

// NotifiedFor reports whether the user has already been notified for the
// given year's occurrence.
func (u *User) NotifiedFor(year int) bool {
	return u.NotifiedYear != nil && *u.NotifiedYear >= year
}

// BirthdayMessage renders the notification text for a user.
func BirthdayMessage(u *User) string {
	return fmt.Sprintf("Hey, %s %s, it's your birthday!", u.FirstName, u.LastName)
}

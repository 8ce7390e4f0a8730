package entities

import "time"

type UserTotals struct {
	Homeowners             int
	Agents                 int
	Admins                 int
	ActiveSubscriptions    int
	CancelledSubscriptions int
}

type RecentAction struct {
	AdminID      string
	Action       string
	ResourceType string
	ResourceID   string
	OccurredAt   time.Time
}

// Overview is a read-only snapshot for the admin dashboard.
type Overview struct {
	GeneratedAt   time.Time
	Users         UserTotals
	Policies      map[string]int
	Claims        map[string]int
	RecentActions []RecentAction
}

package models

import "time"

// DayCount is one bucket of a per-day series; Day is YYYY-MM-DD
type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// HourCount buckets by hour of day, 0-23 in UTC
type HourCount struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

// LabelCount is a named total: a category, a resource type, a username, a weekday
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type UserAnalytics struct {
	Total              int64       `json:"total"`
	New                int64       `json:"new"`
	Active             int64       `json:"active"`
	DailyRegistrations []DayCount  `json:"daily_registrations"`
	LoginsByHour       []HourCount `json:"logins_by_hour"`
}

type ContentAnalytics struct {
	TotalDiscussions int64        `json:"total_discussions"`
	NewDiscussions   int64        `json:"new_discussions"`
	NewComments      int64        `json:"new_comments"`
	ByCategory       []LabelCount `json:"by_category"`
	DailyDiscussions []DayCount   `json:"daily_discussions"`
	DailyComments    []DayCount   `json:"daily_comments"`
	TopContributors  []LabelCount `json:"top_contributors"`
}

type EventRSVPCounts struct {
	EventID      uint   `json:"event_id"`
	Title        string `json:"title"`
	EventDate    string `json:"event_date"`
	Attending    int64  `json:"attending"`
	Maybe        int64  `json:"maybe"`
	NotAttending int64  `json:"not_attending"`
}

type EventAnalytics struct {
	Total     int64             `json:"total"`
	New       int64             `json:"new"`
	Upcoming  int64             `json:"upcoming"`
	RSVPs     []EventRSVPCounts `json:"rsvps"`
	ByWeekday []LabelCount      `json:"by_weekday"`
}

type ResourceAnalytics struct {
	Total           int64        `json:"total"`
	New             int64        `json:"new"`
	ByType          []LabelCount `json:"by_type"`
	TopContributors []LabelCount `json:"top_contributors"`
	DailyAdditions  []DayCount   `json:"daily_additions"`
}

// Analytics is the back-office activity report for the period starting at
// Since. A nil Since covers all time.
type Analytics struct {
	Since     *time.Time        `json:"since"`
	Users     UserAnalytics     `json:"users"`
	Content   ContentAnalytics  `json:"content"`
	Events    EventAnalytics    `json:"events"`
	Resources ResourceAnalytics `json:"resources"`
}

package repository

import (
	"time"

	"github.com/Baaaki/community-hub/internal/models"
	"gorm.io/gorm"
)

const (
	topContributorLimit = 10
	rsvpReportLimit     = 10
	upcomingWindow      = 30 * 24 * time.Hour
)

// AnalyticsRepository runs the aggregate queries behind the activity report.
// A zero from time means no lower bound.
type AnalyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) postgres() bool {
	return r.db.Dialector.Name() == "postgres"
}

// dayExpr renders a timestamp column as YYYY-MM-DD
func (r *AnalyticsRepository) dayExpr(col string) string {
	if r.postgres() {
		return "to_char(" + col + ", 'YYYY-MM-DD')"
	}
	return "date(" + col + ")"
}

func (r *AnalyticsRepository) hourExpr(col string) string {
	if r.postgres() {
		return "CAST(EXTRACT(HOUR FROM " + col + ") AS integer)"
	}
	return "CAST(strftime('%H', " + col + ") AS integer)"
}

// weekdayExpr maps a YYYY-MM-DD text column to 0 (Sunday) .. 6
func (r *AnalyticsRepository) weekdayExpr(col string) string {
	if r.postgres() {
		return "CAST(EXTRACT(DOW FROM CAST(" + col + " AS date)) AS integer)"
	}
	return "CAST(strftime('%w', " + col + ") AS integer)"
}

type weekdayCount struct {
	Weekday int
	Count   int64
}

func since(q *gorm.DB, col string, from time.Time) *gorm.DB {
	if from.IsZero() {
		return q
	}
	return q.Where(col+" >= ?", from)
}

func (r *AnalyticsRepository) count(model interface{}, col string, from time.Time) (int64, error) {
	var n int64
	err := since(r.db.Model(model), col, from).Count(&n).Error
	return n, err
}

func (r *AnalyticsRepository) daily(table, col string, from time.Time) ([]models.DayCount, error) {
	rows := []models.DayCount{}
	expr := r.dayExpr(table + "." + col)
	err := since(r.db.Table(table), table+"."+col, from).
		Select(expr + " AS day, COUNT(*) AS count").
		Group(expr).
		Order("day").
		Scan(&rows).Error
	return rows, err
}

// topContributors ranks usernames by rows they own in table
func (r *AnalyticsRepository) topContributors(table string, from time.Time) ([]models.LabelCount, error) {
	rows := []models.LabelCount{}
	err := since(r.db.Table(table), table+".created_at", from).
		Select("users.username AS label, COUNT(" + table + ".id) AS count").
		Joins("JOIN users ON users.id = " + table + ".user_id").
		Group("users.id, users.username").
		Order("count DESC, label").
		Limit(topContributorLimit).
		Scan(&rows).Error
	return rows, err
}

func (r *AnalyticsRepository) Users(from time.Time) (models.UserAnalytics, error) {
	var out models.UserAnalytics
	var err error

	if out.Total, err = r.count(&models.User{}, "created_at", time.Time{}); err != nil {
		return out, err
	}
	if out.New, err = r.count(&models.User{}, "created_at", from); err != nil {
		return out, err
	}
	active := since(r.db.Model(&models.User{}).Where("last_login IS NOT NULL"), "last_login", from)
	if err = active.Count(&out.Active).Error; err != nil {
		return out, err
	}
	if out.DailyRegistrations, err = r.daily("users", "created_at", from); err != nil {
		return out, err
	}

	out.LoginsByHour = []models.HourCount{}
	hour := r.hourExpr("last_login")
	err = since(r.db.Model(&models.User{}).Where("last_login IS NOT NULL"), "last_login", from).
		Select(hour + " AS hour, COUNT(*) AS count").
		Group(hour).
		Order("hour").
		Scan(&out.LoginsByHour).Error
	return out, err
}

func (r *AnalyticsRepository) Content(from time.Time) (models.ContentAnalytics, error) {
	var out models.ContentAnalytics
	var err error

	if out.TotalDiscussions, err = r.count(&models.Discussion{}, "created_at", time.Time{}); err != nil {
		return out, err
	}
	if out.NewDiscussions, err = r.count(&models.Discussion{}, "created_at", from); err != nil {
		return out, err
	}
	if out.NewComments, err = r.count(&models.Comment{}, "created_at", from); err != nil {
		return out, err
	}

	out.ByCategory = []models.LabelCount{}
	err = since(r.db.Model(&models.Discussion{}), "created_at", from).
		Select("category AS label, COUNT(*) AS count").
		Group("category").
		Order("count DESC, label").
		Scan(&out.ByCategory).Error
	if err != nil {
		return out, err
	}

	if out.DailyDiscussions, err = r.daily("discussions", "created_at", from); err != nil {
		return out, err
	}
	if out.DailyComments, err = r.daily("comments", "created_at", from); err != nil {
		return out, err
	}
	out.TopContributors, err = r.topContributors("discussions", from)
	return out, err
}

// Events counts upcoming events as those dated within 30 days of now
func (r *AnalyticsRepository) Events(from, now time.Time) (models.EventAnalytics, error) {
	var out models.EventAnalytics
	var err error

	if out.Total, err = r.count(&models.Event{}, "created_at", time.Time{}); err != nil {
		return out, err
	}
	if out.New, err = r.count(&models.Event{}, "created_at", from); err != nil {
		return out, err
	}
	err = r.db.Model(&models.Event{}).
		Where("event_date >= ? AND event_date <= ?",
			now.Format(models.EventDateLayout),
			now.Add(upcomingWindow).Format(models.EventDateLayout)).
		Count(&out.Upcoming).Error
	if err != nil {
		return out, err
	}

	// RSVP breakdown covers events dated inside the period
	out.RSVPs = []models.EventRSVPCounts{}
	q := r.db.Table("events").
		Select(`events.id AS event_id, events.title, events.event_date,
			SUM(CASE WHEN rsvps.status = ? THEN 1 ELSE 0 END) AS attending,
			SUM(CASE WHEN rsvps.status = ? THEN 1 ELSE 0 END) AS maybe,
			SUM(CASE WHEN rsvps.status = ? THEN 1 ELSE 0 END) AS not_attending`,
			models.RSVPAttending, models.RSVPMaybe, models.RSVPNotAttending).
		Joins("LEFT JOIN rsvps ON rsvps.event_id = events.id")
	if !from.IsZero() {
		q = q.Where("events.event_date >= ?", from.Format(models.EventDateLayout))
	}
	err = q.Group("events.id, events.title, events.event_date").
		Order("events.event_date, events.id").
		Limit(rsvpReportLimit).
		Scan(&out.RSVPs).Error
	if err != nil {
		return out, err
	}

	var weekdays []weekdayCount
	day := r.weekdayExpr("event_date")
	err = since(r.db.Model(&models.Event{}), "created_at", from).
		Select(day + " AS weekday, COUNT(*) AS count").
		Group(day).
		Order("weekday").
		Scan(&weekdays).Error
	if err != nil {
		return out, err
	}
	out.ByWeekday = make([]models.LabelCount, 0, len(weekdays))
	for _, w := range weekdays {
		out.ByWeekday = append(out.ByWeekday, models.LabelCount{Label: time.Weekday(w.Weekday).String(), Count: w.Count})
	}
	return out, nil
}

// Resources reports the type split over all time, the rest over the period
func (r *AnalyticsRepository) Resources(from time.Time) (models.ResourceAnalytics, error) {
	var out models.ResourceAnalytics
	var err error

	if out.Total, err = r.count(&models.Resource{}, "created_at", time.Time{}); err != nil {
		return out, err
	}
	if out.New, err = r.count(&models.Resource{}, "created_at", from); err != nil {
		return out, err
	}

	out.ByType = []models.LabelCount{}
	err = r.db.Model(&models.Resource{}).
		Select("resource_type AS label, COUNT(*) AS count").
		Group("resource_type").
		Order("label").
		Scan(&out.ByType).Error
	if err != nil {
		return out, err
	}

	if out.TopContributors, err = r.topContributors("resources", from); err != nil {
		return out, err
	}
	out.DailyAdditions, err = r.daily("resources", "created_at", from)
	return out, err
}

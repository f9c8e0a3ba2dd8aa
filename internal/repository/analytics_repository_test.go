package repository_test

import (
	"time"

	"github.com/Baaaki/community-hub/internal/models"
	"github.com/Baaaki/community-hub/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	periodStart = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	inPeriod    = time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)
	beforeIt    = time.Date(2020, 1, 1, 9, 0, 0, 0, time.UTC)
)

// seedActivity dates alice's rows inside the period and bob's before it
func (s *RepositoryTestSuite) seedActivity() {
	t := s.T()
	login := inPeriod.Add(30 * time.Minute)
	require.NoError(t, s.db.Model(s.alice).Updates(map[string]interface{}{"created_at": inPeriod, "last_login": login}).Error)
	require.NoError(t, s.db.Model(s.bob).UpdateColumn("created_at", beforeIt).Error)

	d1 := &models.Discussion{UserID: s.alice.ID, Title: "Tomatoes", Body: "b", Category: "Gardening", CreatedAt: inPeriod, UpdatedAt: inPeriod}
	d2 := &models.Discussion{UserID: s.alice.ID, Title: "Roses", Body: "b", Category: "Gardening", CreatedAt: inPeriod, UpdatedAt: inPeriod}
	d3 := &models.Discussion{UserID: s.bob.ID, Title: "Bread", Body: "b", Category: "Cooking", CreatedAt: beforeIt, UpdatedAt: beforeIt}
	for _, d := range []*models.Discussion{d1, d2, d3} {
		require.NoError(t, s.db.Create(d).Error)
	}
	for _, at := range []time.Time{inPeriod, inPeriod, beforeIt} {
		require.NoError(t, s.db.Create(&models.Comment{DiscussionID: d1.ID, UserID: s.bob.ID, Body: "reply", CreatedAt: at}).Error)
	}

	e1 := &models.Event{UserID: s.alice.ID, Title: "Seed swap", Description: "d", EventDate: "2024-06-17", EventTime: "10:00", Location: "Park", CreatedAt: inPeriod}
	e2 := &models.Event{UserID: s.bob.ID, Title: "Harvest", Description: "d", EventDate: "2024-08-01", EventTime: "10:00", Location: "Park", CreatedAt: inPeriod}
	e3 := &models.Event{UserID: s.alice.ID, Title: "Planting", Description: "d", EventDate: "2024-05-01", EventTime: "10:00", Location: "Park", CreatedAt: beforeIt}
	for _, e := range []*models.Event{e1, e2, e3} {
		require.NoError(t, s.db.Create(e).Error)
	}
	for _, r := range []models.RSVP{
		{EventID: e1.ID, UserID: s.alice.ID, Status: models.RSVPAttending},
		{EventID: e1.ID, UserID: s.bob.ID, Status: models.RSVPMaybe},
		{EventID: e2.ID, UserID: s.bob.ID, Status: models.RSVPNotAttending},
		{EventID: e3.ID, UserID: s.alice.ID, Status: models.RSVPAttending},
	} {
		r := r
		require.NoError(t, s.db.Create(&r).Error)
	}

	url := "https://example.com"
	for _, r := range []*models.Resource{
		{UserID: s.alice.ID, Title: "Soil notes", ResourceType: models.ResourceNote, CreatedAt: inPeriod},
		{UserID: s.alice.ID, Title: "Seed shop", ResourceType: models.ResourceLink, URL: &url, CreatedAt: inPeriod},
		{UserID: s.bob.ID, Title: "Old notes", ResourceType: models.ResourceNote, CreatedAt: beforeIt},
	} {
		require.NoError(t, s.db.Create(r).Error)
	}
}

func (s *RepositoryTestSuite) TestAnalyticsUsers() {
	s.seedActivity()
	repo := repository.NewAnalyticsRepository(s.db)

	users, err := repo.Users(periodStart)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), users.Total)
	assert.Equal(s.T(), int64(1), users.New)
	assert.Equal(s.T(), int64(1), users.Active)
	assert.Equal(s.T(), []models.DayCount{{Day: "2024-06-10", Count: 1}}, users.DailyRegistrations)
	assert.Equal(s.T(), []models.HourCount{{Hour: 14, Count: 1}}, users.LoginsByHour)

	all, err := repo.Users(time.Time{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), all.New)
	assert.Len(s.T(), all.DailyRegistrations, 2)
}

func (s *RepositoryTestSuite) TestAnalyticsContent() {
	s.seedActivity()

	content, err := repository.NewAnalyticsRepository(s.db).Content(periodStart)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(3), content.TotalDiscussions)
	assert.Equal(s.T(), int64(2), content.NewDiscussions)
	assert.Equal(s.T(), int64(2), content.NewComments)
	assert.Equal(s.T(), []models.LabelCount{{Label: "Gardening", Count: 2}}, content.ByCategory)
	assert.Equal(s.T(), []models.DayCount{{Day: "2024-06-10", Count: 2}}, content.DailyDiscussions)
	assert.Equal(s.T(), []models.DayCount{{Day: "2024-06-10", Count: 2}}, content.DailyComments)
	assert.Equal(s.T(), []models.LabelCount{{Label: "alice", Count: 2}}, content.TopContributors)
}

func (s *RepositoryTestSuite) TestAnalyticsEvents() {
	s.seedActivity()
	now := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)

	events, err := repository.NewAnalyticsRepository(s.db).Events(periodStart, now)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(3), events.Total)
	assert.Equal(s.T(), int64(2), events.New)
	assert.Equal(s.T(), int64(1), events.Upcoming, "only the event inside the next 30 days")

	require.Len(s.T(), events.RSVPs, 2)
	assert.Equal(s.T(), "Seed swap", events.RSVPs[0].Title)
	assert.Equal(s.T(), int64(1), events.RSVPs[0].Attending)
	assert.Equal(s.T(), int64(1), events.RSVPs[0].Maybe)
	assert.Equal(s.T(), int64(0), events.RSVPs[0].NotAttending)
	assert.Equal(s.T(), "Harvest", events.RSVPs[1].Title)
	assert.Equal(s.T(), int64(1), events.RSVPs[1].NotAttending)

	assert.Equal(s.T(), []models.LabelCount{
		{Label: "Monday", Count: 1},
		{Label: "Thursday", Count: 1},
	}, events.ByWeekday)
}

func (s *RepositoryTestSuite) TestAnalyticsResources() {
	s.seedActivity()

	resources, err := repository.NewAnalyticsRepository(s.db).Resources(periodStart)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(3), resources.Total)
	assert.Equal(s.T(), int64(2), resources.New)
	assert.Equal(s.T(), []models.LabelCount{
		{Label: "Link", Count: 1},
		{Label: "Note", Count: 2},
	}, resources.ByType)
	assert.Equal(s.T(), []models.LabelCount{{Label: "alice", Count: 2}}, resources.TopContributors)
	assert.Equal(s.T(), []models.DayCount{{Day: "2024-06-10", Count: 2}}, resources.DailyAdditions)
}

func (s *RepositoryTestSuite) TestAnalyticsOnEmptyDatabaseReturnsEmptySeries() {
	repo := repository.NewAnalyticsRepository(s.db)

	content, err := repo.Content(periodStart)
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), content.ByCategory)
	assert.Empty(s.T(), content.DailyDiscussions)

	events, err := repo.Events(periodStart, periodStart)
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), events.ByWeekday)
	assert.Empty(s.T(), events.RSVPs)
}

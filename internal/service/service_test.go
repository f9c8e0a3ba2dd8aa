package service_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Baaaki/community-hub/internal/audit"
	"github.com/Baaaki/community-hub/internal/broker"
	"github.com/Baaaki/community-hub/internal/models"
	"github.com/Baaaki/community-hub/internal/repository"
	"github.com/Baaaki/community-hub/internal/service"
	"github.com/Baaaki/community-hub/internal/session"
	"github.com/Baaaki/community-hub/internal/storage"
	"github.com/Baaaki/community-hub/internal/testutil"
	"github.com/Baaaki/community-hub/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type ServiceTestSuite struct {
	suite.Suite
	testDB    *testutil.TestDatabase
	testRedis *testutil.TestRedis
	db        *gorm.DB
	files     *storage.FileStore
	journal   *audit.Journal
	notifier  *broker.RedisNotifier

	auth          *service.AuthService
	profiles      *service.ProfileService
	discussions   *service.DiscussionService
	events        *service.EventService
	resources     *service.ResourceService
	messages      *service.MessageService
	announcements *service.AnnouncementService
	admin         *service.AdminService

	alice     *models.User
	bob       *models.User
	adminUser *models.User
}

func (s *ServiceTestSuite) SetupTest() {
	t := s.T()
	s.testDB = testutil.SetupTestDatabase(t)
	s.testRedis = testutil.SetupTestRedis(t)
	s.db = s.testDB.DB

	var err error
	s.files, err = storage.NewFileStore(t.TempDir(), 64, 1024*1024)
	require.NoError(t, err)
	s.journal, err = audit.Open(filepath.Join(t.TempDir(), "audit.log"))
	require.NoError(t, err)

	client, err := broker.NewRedisClient(context.Background(), s.testRedis.URL)
	require.NoError(t, err)
	s.notifier = broker.NewRedisNotifier(client)

	userRepo := repository.NewUserRepository(s.db)
	profileRepo := repository.NewProfileRepository(s.db)
	resourceRepo := repository.NewResourceRepository(s.db)

	s.auth = service.NewAuthService(userRepo, "test-secret", time.Hour, "test")
	s.profiles = service.NewProfileService(profileRepo, s.files, nil)
	s.discussions = service.NewDiscussionService(repository.NewDiscussionRepository(s.db), s.notifier, s.journal)
	s.events = service.NewEventService(repository.NewEventRepository(s.db), s.notifier, s.journal)
	s.resources = service.NewResourceService(resourceRepo, s.files, []string{"pdf", "plain", "png"}, s.journal)
	s.messages = service.NewMessageService(repository.NewMessageRepository(s.db), userRepo, s.notifier, s.journal)
	s.announcements = service.NewAnnouncementService(repository.NewAnnouncementRepository(s.db), s.notifier, s.journal)
	s.admin = service.NewAdminService(s.auth, userRepo, profileRepo, resourceRepo,
		repository.NewMaintenanceRepository(s.db), repository.NewAnalyticsRepository(s.db), s.files, s.journal)

	s.alice = testutil.CreateTestUser(t, s.db, "alice", models.RoleUser)
	s.bob = testutil.CreateTestUser(t, s.db, "bob", models.RoleUser)
	s.adminUser = testutil.DefaultAdminUser(t, s.db)
}

func (s *ServiceTestSuite) TearDownTest() {
	s.notifier.Close()
	s.journal.Close()
	s.testRedis.Teardown(s.T())
	s.testDB.Teardown(s.T())
}

func (s *ServiceTestSuite) sess(u *models.User) session.Session {
	return testutil.SessionOf(u)
}

// Credential Store

func (s *ServiceTestSuite) TestCreateUserRejectsDuplicateUsername() {
	user, err := s.auth.CreateUser("carol", "a@x.com", "pw1", models.RoleUser)
	require.NoError(s.T(), err)
	assert.NotZero(s.T(), user.ID)
	assert.Equal(s.T(), int64(1), testutil.CountRows(s.T(), s.db, &models.Profile{}, "user_id = ?", user.ID))

	_, err = s.auth.CreateUser("carol", "b@x.com", "pw2", models.RoleUser)
	assert.ErrorIs(s.T(), err, service.ErrUserAlreadyExists)

	_, err = s.auth.CreateUser("dave", "a@x.com", "pw2", models.RoleUser)
	assert.ErrorIs(s.T(), err, service.ErrUserAlreadyExists)

	assert.Equal(s.T(), int64(1), testutil.CountRows(s.T(), s.db, &models.User{}, "username = ?", "carol"))
}

func (s *ServiceTestSuite) TestCreateUserValidation() {
	cases := []struct{ username, email, password string }{
		{"", "e@x.com", "pw"},
		{"erin", "not-an-email", "pw"},
		{"erin", "e@x.com", ""},
		{strings.Repeat("u", 51), "e@x.com", "pw"},
	}
	for _, c := range cases {
		_, err := s.auth.CreateUser(c.username, c.email, c.password, models.RoleUser)
		assert.ErrorIs(s.T(), err, service.ErrInvalidInput, "%+v", c)
	}

	_, err := s.auth.CreateUser("erin", "e@x.com", "pw", models.Role("root"))
	assert.ErrorIs(s.T(), err, service.ErrInvalidInput)
}

func (s *ServiceTestSuite) TestAuthenticate() {
	_, err := s.auth.CreateUser("alice2", "a@x.com", "pw1", models.RoleUser)
	require.NoError(s.T(), err)

	_, err = s.auth.Authenticate("alice2", "wrong")
	assert.ErrorIs(s.T(), err, service.ErrInvalidCredentials)

	_, err = s.auth.Authenticate("nobody", "pw1")
	assert.ErrorIs(s.T(), err, service.ErrInvalidCredentials)

	// exact match only
	_, err = s.auth.Authenticate("ALICE2", "pw1")
	assert.ErrorIs(s.T(), err, service.ErrInvalidCredentials)

	user, err := s.auth.Authenticate("alice2", "pw1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "alice2", user.Username)
	assert.Equal(s.T(), models.RoleUser, user.Role)
	require.NotNil(s.T(), user.LastLogin)

	var stored models.User
	require.NoError(s.T(), s.db.First(&stored, user.ID).Error)
	assert.NotNil(s.T(), stored.LastLogin)
}

func (s *ServiceTestSuite) TestRegisterAndLogin() {
	_, _, err := s.auth.Register("frank", "f@x.com", "secret", "secret2")
	assert.ErrorIs(s.T(), err, service.ErrPasswordMismatch)

	user, token, err := s.auth.Register("frank", "f@x.com", "secret", "secret")
	require.NoError(s.T(), err)
	assert.NotEmpty(s.T(), token)

	sess, err := s.auth.ValidateToken(token)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), user.ID, sess.UserID)

	_, token, err = s.auth.Login("frank", "secret")
	require.NoError(s.T(), err)
	claims, err := utils.NewTokenIssuer("test-secret", time.Hour).Parse(token)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "frank", claims.Username)
}

func (s *ServiceTestSuite) TestIsAdmin() {
	ok, err := s.auth.IsAdmin(s.adminUser.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), ok)

	ok, err = s.auth.IsAdmin(s.alice.ID)
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)

	ok, err = s.auth.IsAdmin(9999)
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)
}

func (s *ServiceTestSuite) TestSessionForPicksUpRoleChange() {
	require.NoError(s.T(), s.admin.SetRole(s.sess(s.adminUser), s.alice.ID, models.RoleAdmin))

	sess, err := s.auth.SessionFor(s.alice.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), sess.IsAdmin())

	_, err = s.auth.SessionFor(9999)
	assert.ErrorIs(s.T(), err, service.ErrNotFound)
}

// Profiles

func (s *ServiceTestSuite) TestProfileUpdateAndGet() {
	_, err := s.profiles.Update(s.sess(s.alice), "Gardener", "plants, soil")
	require.NoError(s.T(), err)

	view, err := s.profiles.Get(s.sess(s.bob), s.alice.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "alice", view.Username)
	assert.Equal(s.T(), "Gardener", view.Bio)
	assert.Equal(s.T(), "plants, soil", view.Interests)

	// bob's own row is untouched
	bobView, err := s.profiles.Get(s.sess(s.bob), s.bob.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), bobView.Bio)

	_, err = s.profiles.Get(s.sess(s.bob), 9999)
	assert.ErrorIs(s.T(), err, service.ErrNotFound)
}

func (s *ServiceTestSuite) TestUploadPhotoRejectsNonImageAndKeepsPath() {
	first, err := s.profiles.UploadPhoto(s.sess(s.alice), bytes.NewReader(testutil.PNGBytes(s.T(), 20, 10)), "image/png")
	require.NoError(s.T(), err)

	_, err = s.profiles.UploadPhoto(s.sess(s.alice), strings.NewReader("this is text"), "image/png")
	assert.ErrorIs(s.T(), err, storage.ErrDecode)

	_, err = s.profiles.UploadPhoto(s.sess(s.alice), strings.NewReader("%PDF"), "application/pdf")
	assert.ErrorIs(s.T(), err, storage.ErrInvalidType)

	view, err := s.profiles.Get(s.sess(s.alice), s.alice.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), view.PhotoPath)
	assert.Equal(s.T(), first, *view.PhotoPath)
	assert.FileExists(s.T(), first)
}

func (s *ServiceTestSuite) TestUploadPhotoReplacesPreviousFile() {
	first, err := s.profiles.UploadPhoto(s.sess(s.alice), bytes.NewReader(testutil.PNGBytes(s.T(), 20, 10)), "image/png")
	require.NoError(s.T(), err)
	second, err := s.profiles.UploadPhoto(s.sess(s.alice), bytes.NewReader(testutil.PNGBytes(s.T(), 10, 20)), "image/png")
	require.NoError(s.T(), err)

	assert.NotEqual(s.T(), first, second)
	assert.NoFileExists(s.T(), first)
	assert.FileExists(s.T(), second)
}

// Discussions

func (s *ServiceTestSuite) TestDiscussionDeleteRemovesComments() {
	d, err := s.discussions.Create(s.sess(s.alice), "Seeds", "Who has spare seeds?", "Gardening")
	require.NoError(s.T(), err)
	for i := 0; i < 3; i++ {
		_, err := s.discussions.AddComment(s.sess(s.bob), d.ID, "me!")
		require.NoError(s.T(), err)
	}

	detail, err := s.discussions.Get(d.ID)
	require.NoError(s.T(), err)
	assert.Len(s.T(), detail.Comments, 3)
	assert.Equal(s.T(), int64(3), detail.CommentCount)
	assert.Equal(s.T(), "alice", detail.AuthorUsername)

	assert.ErrorIs(s.T(), s.discussions.Delete(s.sess(s.bob), d.ID), service.ErrForbidden)
	require.NoError(s.T(), s.discussions.Delete(s.sess(s.alice), d.ID))

	assert.Equal(s.T(), int64(0), testutil.CountRows(s.T(), s.db, &models.Comment{}, "discussion_id = ?", d.ID))
	_, err = s.discussions.Get(d.ID)
	assert.ErrorIs(s.T(), err, service.ErrNotFound)
}

func (s *ServiceTestSuite) TestDiscussionValidationAndModeration() {
	_, err := s.discussions.Create(s.sess(s.alice), "  ", "body", "General")
	assert.ErrorIs(s.T(), err, service.ErrInvalidInput)

	_, err = s.discussions.Create(session.Session{}, "t", "b", "c")
	assert.ErrorIs(s.T(), err, service.ErrForbidden)

	_, err = s.discussions.AddComment(s.sess(s.bob), 9999, "hello")
	assert.ErrorIs(s.T(), err, service.ErrNotFound)

	d, err := s.discussions.Create(s.sess(s.alice), "Rules", "Be nice", "Meta")
	require.NoError(s.T(), err)
	c, err := s.discussions.AddComment(s.sess(s.bob), d.ID, "spam")
	require.NoError(s.T(), err)

	assert.ErrorIs(s.T(), s.discussions.DeleteComment(s.sess(s.alice), c.ID), service.ErrForbidden)
	require.NoError(s.T(), s.discussions.DeleteComment(s.sess(s.adminUser), c.ID))
	assert.ErrorIs(s.T(), s.discussions.DeleteComment(s.sess(s.adminUser), c.ID), service.ErrNotFound)

	_, err = s.discussions.List(repository.DiscussionFilter{Sort: "random"})
	assert.ErrorIs(s.T(), err, service.ErrInvalidInput)
}

// Events

func (s *ServiceTestSuite) TestEventCreateRSVPsOrganizer() {
	e, err := s.events.Create(s.sess(s.alice), "Swap", "Seed swap", "2030-04-01", "10:00", "Library")
	require.NoError(s.T(), err)

	mine, err := s.events.MyRSVP(s.sess(s.alice), e.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), mine)
	assert.Equal(s.T(), models.RSVPAttending, mine.Status)

	detail, err := s.events.Get(e.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), detail.AttendingCount)
	assert.Len(s.T(), detail.RSVPs, 1)
}

func (s *ServiceTestSuite) TestEventValidation() {
	_, err := s.events.Create(s.sess(s.alice), "Swap", "d", "01/04/2030", "10:00", "Library")
	assert.ErrorIs(s.T(), err, service.ErrInvalidInput)
	_, err = s.events.Create(s.sess(s.alice), "Swap", "d", "2030-04-01", "25:00", "Library")
	assert.ErrorIs(s.T(), err, service.ErrInvalidInput)
	_, err = s.events.List(repository.EventFilter{From: "tomorrow"})
	assert.ErrorIs(s.T(), err, service.ErrInvalidInput)
	assert.Equal(s.T(), int64(0), testutil.CountRows(s.T(), s.db, &models.Event{}, ""))
}

func (s *ServiceTestSuite) TestRSVPUpsertKeepsOneRow() {
	e, err := s.events.Create(s.sess(s.alice), "Swap", "Seed swap", "2030-04-01", "10:00", "Library")
	require.NoError(s.T(), err)

	_, err = s.events.RSVP(s.sess(s.bob), e.ID, models.RSVPAttending)
	require.NoError(s.T(), err)
	rsvp, err := s.events.RSVP(s.sess(s.bob), e.ID, models.RSVPMaybe)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.RSVPMaybe, rsvp.Status)

	assert.Equal(s.T(), int64(1), testutil.CountRows(s.T(), s.db, &models.RSVP{}, "event_id = ? AND user_id = ?", e.ID, s.bob.ID))

	_, err = s.events.RSVP(s.sess(s.bob), e.ID, models.RSVPStatus("perhaps"))
	assert.ErrorIs(s.T(), err, service.ErrInvalidInput)
	_, err = s.events.RSVP(s.sess(s.bob), 9999, models.RSVPMaybe)
	assert.ErrorIs(s.T(), err, service.ErrNotFound)
}

func (s *ServiceTestSuite) TestEventDeleteByOrganizerOrAdmin() {
	e, err := s.events.Create(s.sess(s.alice), "Swap", "Seed swap", "2030-04-01", "10:00", "Library")
	require.NoError(s.T(), err)
	_, err = s.events.RSVP(s.sess(s.bob), e.ID, models.RSVPMaybe)
	require.NoError(s.T(), err)

	assert.ErrorIs(s.T(), s.events.Delete(s.sess(s.bob), e.ID), service.ErrForbidden)
	require.NoError(s.T(), s.events.Delete(s.sess(s.adminUser), e.ID))
	assert.Equal(s.T(), int64(0), testutil.CountRows(s.T(), s.db, &models.RSVP{}, "event_id = ?", e.ID))
}

// Resources

func (s *ServiceTestSuite) TestResourceFileLifecycle() {
	r, err := s.resources.CreateFile(s.sess(s.alice), "Guide", "PDF guide", strings.NewReader("%PDF-1.4 guide"), "guide.pdf", "application/pdf")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), r.FilePath)
	assert.FileExists(s.T(), *r.FilePath)

	assert.ErrorIs(s.T(), s.resources.Delete(s.sess(s.bob), r.ID), service.ErrForbidden)
	require.NoError(s.T(), s.resources.Delete(s.sess(s.alice), r.ID))
	assert.NoFileExists(s.T(), *r.FilePath)

	_, err = s.resources.Get(r.ID)
	assert.ErrorIs(s.T(), err, service.ErrNotFound)
}

func (s *ServiceTestSuite) TestResourceRejectsDisallowedType() {
	_, err := s.resources.CreateFile(s.sess(s.alice), "Tool", "", strings.NewReader("PK\x03\x04"), "tool.zip", "application/zip")
	assert.ErrorIs(s.T(), err, storage.ErrInvalidType)
	assert.Equal(s.T(), int64(0), testutil.CountRows(s.T(), s.db, &models.Resource{}, ""))
}

func (s *ServiceTestSuite) TestResourceLinksAndNotes() {
	_, err := s.resources.CreateLink(s.sess(s.alice), "Docs", "", "ftp://example.com")
	assert.ErrorIs(s.T(), err, service.ErrInvalidInput)

	link, err := s.resources.CreateLink(s.sess(s.alice), "Docs", "reference", "https://example.com/docs")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.ResourceLink, link.ResourceType)

	note, err := s.resources.CreateNote(s.sess(s.bob), "Tip", "Water in the morning")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Water in the morning", note.Description)

	types, err := s.resources.Types()
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"Link", "Note"}, types)

	notes, err := s.resources.List(repository.ResourceFilter{Type: "Note"})
	require.NoError(s.T(), err)
	require.Len(s.T(), notes, 1)
	assert.Equal(s.T(), "bob", notes[0].OwnerUsername)

	_, err = s.resources.List(repository.ResourceFilter{Type: "Video"})
	assert.ErrorIs(s.T(), err, service.ErrInvalidInput)
}

// Messages

func (s *ServiceTestSuite) TestSendValidation() {
	_, err := s.messages.Send(s.sess(s.alice), s.alice.ID, "hi me")
	assert.ErrorIs(s.T(), err, service.ErrInvalidInput)

	_, err = s.messages.Send(s.sess(s.alice), 9999, "hi")
	assert.ErrorIs(s.T(), err, service.ErrNotFound)

	_, err = s.messages.Send(s.sess(s.alice), s.bob.ID, "   ")
	assert.ErrorIs(s.T(), err, service.ErrInvalidInput)
}

func (s *ServiceTestSuite) TestConversationMarksRead() {
	_, err := s.messages.Send(s.sess(s.alice), s.bob.ID, "hi bob")
	require.NoError(s.T(), err)
	_, err = s.messages.Send(s.sess(s.alice), s.bob.ID, "are you there?")
	require.NoError(s.T(), err)

	unread, err := s.messages.UnreadCount(s.sess(s.bob))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), unread)

	convos, err := s.messages.Conversations(s.sess(s.bob))
	require.NoError(s.T(), err)
	require.Len(s.T(), convos, 2)
	assert.Equal(s.T(), "alice", convos[0].Username)
	assert.Equal(s.T(), int64(2), convos[0].UnreadCount)
	assert.NotNil(s.T(), convos[0].LatestAt)
	assert.Nil(s.T(), convos[1].LatestAt)

	// reading as the sender marks nothing
	_, err = s.messages.Conversation(s.sess(s.alice), s.bob.ID)
	require.NoError(s.T(), err)
	unread, _ = s.messages.UnreadCount(s.sess(s.bob))
	assert.Equal(s.T(), int64(2), unread)

	thread, err := s.messages.Conversation(s.sess(s.bob), s.alice.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), thread, 2)
	assert.Equal(s.T(), "hi bob", thread[0].Body)

	unread, err = s.messages.UnreadCount(s.sess(s.bob))
	require.NoError(s.T(), err)
	assert.Zero(s.T(), unread)
}

func (s *ServiceTestSuite) TestMessageDeleteBySenderOrAdmin() {
	msg, err := s.messages.Send(s.sess(s.alice), s.bob.ID, "oops")
	require.NoError(s.T(), err)

	assert.ErrorIs(s.T(), s.messages.Delete(s.sess(s.bob), msg.ID), service.ErrForbidden)
	require.NoError(s.T(), s.messages.Delete(s.sess(s.alice), msg.ID))
	assert.ErrorIs(s.T(), s.messages.Delete(s.sess(s.alice), msg.ID), service.ErrNotFound)
}

func (s *ServiceTestSuite) TestSendPublishesDirectNotification() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := s.notifier.Subscribe(ctx)
	require.NoError(s.T(), err)

	msg, err := s.messages.Send(s.sess(s.alice), s.bob.ID, "ping")
	require.NoError(s.T(), err)

	select {
	case n := <-ch:
		assert.Equal(s.T(), broker.TypeDirectMessage, n.Type)
		assert.Equal(s.T(), s.bob.ID, n.RecipientID)
		assert.Equal(s.T(), msg.ID, n.ReferenceID)
		assert.Equal(s.T(), "alice", n.ActorName)
	case <-time.After(2 * time.Second):
		s.T().Fatal("no notification received")
	}
}

// Announcements

func (s *ServiceTestSuite) TestAnnouncementsAreAdminOnly() {
	_, err := s.announcements.Create(s.sess(s.alice), "Hello", "World")
	assert.ErrorIs(s.T(), err, service.ErrForbidden)

	a, err := s.announcements.Create(s.sess(s.adminUser), "Welcome", "New season starts")
	require.NoError(s.T(), err)

	list, err := s.announcements.List(repository.AnnouncementFilter{})
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 1)
	assert.Equal(s.T(), "admin", list[0].AuthorUsername)

	assert.ErrorIs(s.T(), s.announcements.Delete(s.sess(s.alice), a.ID), service.ErrForbidden)
	require.NoError(s.T(), s.announcements.Delete(s.sess(s.adminUser), a.ID))
	_, err = s.announcements.Get(a.ID)
	assert.ErrorIs(s.T(), err, service.ErrNotFound)
}

// Admin

func (s *ServiceTestSuite) TestModerationDeletesAreAudited() {
	alice, adminSess := s.sess(s.alice), s.sess(s.adminUser)

	own, err := s.discussions.Create(alice, "Mine", "body", "General")
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.discussions.Delete(alice, own.ID))

	d, err := s.discussions.Create(alice, "Spam thread", "body", "General")
	require.NoError(s.T(), err)
	c, err := s.discussions.AddComment(s.sess(s.bob), d.ID, "spam")
	require.NoError(s.T(), err)
	e, err := s.events.Create(alice, "Party", "desc", "2030-01-01", "18:00", "Hall")
	require.NoError(s.T(), err)
	r, err := s.resources.CreateNote(alice, "Note", "text")
	require.NoError(s.T(), err)
	m, err := s.messages.Send(alice, s.bob.ID, "hello")
	require.NoError(s.T(), err)
	a, err := s.announcements.Create(adminSess, "Notice", "body")
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.discussions.DeleteComment(adminSess, c.ID))
	require.NoError(s.T(), s.discussions.Delete(adminSess, d.ID))
	require.NoError(s.T(), s.events.Delete(adminSess, e.ID))
	require.NoError(s.T(), s.resources.Delete(adminSess, r.ID))
	require.NoError(s.T(), s.messages.Delete(adminSess, m.ID))
	require.NoError(s.T(), s.announcements.Delete(adminSess, a.ID))

	entries, err := s.journal.ReadAll()
	require.NoError(s.T(), err)
	actions := make(map[string]uint, len(entries))
	for _, entry := range entries {
		assert.Equal(s.T(), s.adminUser.ID, entry.ActorID)
		actions[entry.Action] = entry.TargetID
	}
	assert.Equal(s.T(), map[string]uint{
		audit.ActionDeleteComment:      c.ID,
		audit.ActionDeleteDiscussion:   d.ID,
		audit.ActionDeleteEvent:        e.ID,
		audit.ActionDeleteResource:     r.ID,
		audit.ActionDeleteMessage:      m.ID,
		audit.ActionDeleteAnnouncement: a.ID,
	}, actions, "the owner's own delete is not journaled")
}

func (s *ServiceTestSuite) TestAdminDeleteUserCascadesAndAudits() {
	_, err := s.discussions.Create(s.sess(s.bob), "Bob's thread", "body", "General")
	require.NoError(s.T(), err)
	r, err := s.resources.CreateFile(s.sess(s.bob), "Notes", "", strings.NewReader("plain notes"), "notes.txt", "text/plain")
	require.NoError(s.T(), err)
	photo, err := s.profiles.UploadPhoto(s.sess(s.bob), bytes.NewReader(testutil.PNGBytes(s.T(), 8, 8)), "image/png")
	require.NoError(s.T(), err)
	_, err = s.messages.Send(s.sess(s.alice), s.bob.ID, "bye")
	require.NoError(s.T(), err)

	assert.ErrorIs(s.T(), s.admin.DeleteUser(s.sess(s.alice), s.bob.ID), service.ErrForbidden)
	assert.ErrorIs(s.T(), s.admin.DeleteUser(s.sess(s.adminUser), s.adminUser.ID), service.ErrForbidden)

	require.NoError(s.T(), s.admin.DeleteUser(s.sess(s.adminUser), s.bob.ID))

	assert.Equal(s.T(), int64(0), testutil.CountRows(s.T(), s.db, &models.User{}, "id = ?", s.bob.ID))
	assert.Equal(s.T(), int64(0), testutil.CountRows(s.T(), s.db, &models.Profile{}, "user_id = ?", s.bob.ID))
	assert.Equal(s.T(), int64(0), testutil.CountRows(s.T(), s.db, &models.Discussion{}, "user_id = ?", s.bob.ID))
	assert.Equal(s.T(), int64(0), testutil.CountRows(s.T(), s.db, &models.Message{}, "receiver_id = ?", s.bob.ID))
	assert.NoFileExists(s.T(), *r.FilePath)
	assert.NoFileExists(s.T(), photo)

	entries, err := s.admin.AuditLog(s.sess(s.adminUser), 10)
	require.NoError(s.T(), err)
	require.NotEmpty(s.T(), entries)
	assert.Equal(s.T(), audit.ActionDeleteUser, entries[0].Action)
	assert.Equal(s.T(), s.bob.ID, entries[0].TargetID)

	assert.ErrorIs(s.T(), s.admin.DeleteUser(s.sess(s.adminUser), s.bob.ID), service.ErrNotFound)
}

func (s *ServiceTestSuite) TestAdminRoleAndPassword() {
	adminSess := s.sess(s.adminUser)

	err := s.admin.SetRole(adminSess, s.adminUser.ID, models.RoleUser)
	assert.ErrorIs(s.T(), err, service.ErrInvalidInput, "last admin must stay admin")

	require.NoError(s.T(), s.admin.SetRole(adminSess, s.alice.ID, models.RoleAdmin))
	ok, err := s.auth.IsAdmin(s.alice.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), ok)

	require.NoError(s.T(), s.admin.ResetPassword(adminSess, s.bob.ID, "fresh-pass"))
	_, err = s.auth.Authenticate("bob", testutil.DefaultPassword)
	assert.ErrorIs(s.T(), err, service.ErrInvalidCredentials)
	_, err = s.auth.Authenticate("bob", "fresh-pass")
	assert.NoError(s.T(), err)

	assert.ErrorIs(s.T(), s.admin.ResetPassword(adminSess, 9999, "x"), service.ErrNotFound)
	assert.ErrorIs(s.T(), s.admin.SetRole(s.sess(s.bob), s.bob.ID, models.RoleAdmin), service.ErrForbidden)
}

func (s *ServiceTestSuite) TestAdminUsersAndMaintenance() {
	adminSess := s.sess(s.adminUser)

	created, err := s.admin.CreateUser(adminSess, "gina", "g@x.com", "pw", models.RoleUser)
	require.NoError(s.T(), err)

	users, err := s.admin.ListUsers(adminSess)
	require.NoError(s.T(), err)
	assert.Len(s.T(), users, 4)

	result, err := s.admin.IntegrityCheck(adminSess)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "ok", result)

	stats, err := s.admin.Stats(adminSess)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(4), stats["users"])

	_, err = s.admin.ListUsers(s.sess(s.alice))
	assert.ErrorIs(s.T(), err, service.ErrForbidden)

	entries, err := s.admin.AuditLog(adminSess, 0)
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 1)
	assert.Equal(s.T(), audit.ActionCreateUser, entries[0].Action)
	assert.Equal(s.T(), created.ID, entries[0].TargetID)

	removed, err := s.admin.PruneAudit(adminSess, time.Now().UTC().Add(time.Minute))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, removed)
}

func (s *ServiceTestSuite) TestAdminAnalytics() {
	_, err := s.discussions.Create(s.sess(s.alice), "Seeds", "Who has spare seeds?", "Gardening")
	require.NoError(s.T(), err)
	_, err = s.discussions.Create(s.sess(s.alice), "Compost", "Bins or heaps?", "Gardening")
	require.NoError(s.T(), err)

	_, err = s.admin.Analytics(s.sess(s.alice), nil)
	assert.ErrorIs(s.T(), err, service.ErrForbidden)

	since := time.Now().UTC().Add(-time.Hour)
	report, err := s.admin.Analytics(s.sess(s.adminUser), &since)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), &since, report.Since)
	assert.Equal(s.T(), int64(3), report.Users.Total)
	assert.Equal(s.T(), int64(2), report.Content.NewDiscussions)
	assert.Equal(s.T(), []models.LabelCount{{Label: "Gardening", Count: 2}}, report.Content.ByCategory)
	assert.Equal(s.T(), []models.LabelCount{{Label: "alice", Count: 2}}, report.Content.TopContributors)

	future := time.Now().UTC().Add(time.Hour)
	report, err = s.admin.Analytics(s.sess(s.adminUser), &future)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(0), report.Content.NewDiscussions)
	assert.Equal(s.T(), int64(2), report.Content.TotalDiscussions)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

package service

import (
	"errors"
	"os"
	"testing"

	"cakery_api/internal/domain/notification/model"
	"cakery_api/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// MockNotificationRepository is a mock of NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(n *model.Notification) error {
	args := m.Called(n)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByUser(userID uint, offset, limit int) ([]model.Notification, int64, error) {
	args := m.Called(userID, offset, limit)
	return args.Get(0).([]model.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationRepository) MarkRead(id, userID uint) error {
	args := m.Called(id, userID)
	return args.Error(0)
}

// MockMailer is a mock of Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(to, subject, body string) error {
	args := m.Called(to, subject, body)
	return args.Error(0)
}

func TestNotifyOrder(t *testing.T) {
	t.Run("Persists notification and sends email", func(t *testing.T) {
		repo := new(MockNotificationRepository)
		mail := new(MockMailer)
		svc := NewNotificationService(repo, mail)

		repo.On("Create", mock.MatchedBy(func(n *model.Notification) bool {
			return n.UserID == 5 && n.Type == model.TypeOrder && n.Title == "Order Status Updated"
		})).Return(nil)
		mail.On("Send", "wanjiku@example.com", "Order Status Updated - Adorable Cakery", "body").Return(nil)

		svc.NotifyOrder(5, "wanjiku@example.com", "Order Status Updated",
			"Order Status Updated - Adorable Cakery", "body")

		repo.AssertExpectations(t)
		mail.AssertExpectations(t)
	})

	t.Run("Persistence failure does not stop the email", func(t *testing.T) {
		repo := new(MockNotificationRepository)
		mail := new(MockMailer)
		svc := NewNotificationService(repo, mail)

		repo.On("Create", mock.Anything).Return(errors.New("db down"))
		mail.On("Send", "wanjiku@example.com", mock.Anything, mock.Anything).Return(nil)

		svc.NotifyOrder(5, "wanjiku@example.com", "Title", "Subject", "body")

		mail.AssertExpectations(t)
	})

	t.Run("Email failure is swallowed", func(t *testing.T) {
		repo := new(MockNotificationRepository)
		mail := new(MockMailer)
		svc := NewNotificationService(repo, mail)

		repo.On("Create", mock.Anything).Return(nil)
		mail.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp timeout"))

		assert.NotPanics(t, func() {
			svc.NotifyOrder(5, "wanjiku@example.com", "Title", "Subject", "body")
		})
	})
}

func TestNotifyOrderBatch(t *testing.T) {
	t.Run("Messages combined into one notification", func(t *testing.T) {
		repo := new(MockNotificationRepository)
		mail := new(MockMailer)
		svc := NewNotificationService(repo, mail)

		repo.On("Create", mock.MatchedBy(func(n *model.Notification) bool {
			return n.Message == "first update\n\nsecond update"
		})).Return(nil).Once()
		mail.On("Send", "wanjiku@example.com", mock.Anything, "first update\n\nsecond update").
			Return(nil).Once()

		svc.NotifyOrderBatch(5, "wanjiku@example.com", "Order Status Updates",
			"Multiple Order Updates - Adorable Cakery",
			[]string{"first update", "second update"})

		repo.AssertExpectations(t)
		mail.AssertExpectations(t)
	})

	t.Run("Empty batch is a no-op", func(t *testing.T) {
		repo := new(MockNotificationRepository)
		mail := new(MockMailer)
		svc := NewNotificationService(repo, mail)

		svc.NotifyOrderBatch(5, "wanjiku@example.com", "Title", "Subject", nil)

		repo.AssertNotCalled(t, "Create", mock.Anything)
		mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSendEmail(t *testing.T) {
	t.Run("Empty recipient skipped", func(t *testing.T) {
		repo := new(MockNotificationRepository)
		mail := new(MockMailer)
		svc := NewNotificationService(repo, mail)

		svc.SendEmail("", "Subject", "body")

		mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})
}

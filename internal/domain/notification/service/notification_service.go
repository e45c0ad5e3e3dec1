package service

import (
	"cakery_api/internal/domain/notification/model"
	"cakery_api/internal/domain/notification/repository"
	"cakery_api/internal/pkg/config"
	"cakery_api/pkg/logger"
	"cakery_api/pkg/mailer"
	"cakery_api/pkg/utils"

	"go.uber.org/zap"
)

// NotificationService is the fan-out point for order and payment events.
// Every method that sends anything is non-fatal by contract: the state
// change that triggered a notification is already committed, so failures
// here are logged and swallowed, never propagated.
type NotificationService interface {
	// NotifyOrder persists an in-app notification of type "order" and
	// attempts an email to the user.
	NotifyOrder(userID uint, email, title, emailSubject, message string)

	// NotifyOrderBatch groups several messages for one user into a single
	// combined notification and a single combined email.
	NotifyOrderBatch(userID uint, email, title, emailSubject string, messages []string)

	// SendEmail attempts a bare email send (used for admin copies and
	// order-creation confirmations, which have no in-app counterpart).
	SendEmail(to, subject, body string)

	// AdminEmail returns the configured admin recipient, "" if unset.
	AdminEmail() string

	List(userID uint, p *utils.Pagination) (*utils.PageResult, error)
	MarkRead(id, userID uint) error
}

type notificationService struct {
	repo repository.NotificationRepository
	mail mailer.Mailer
}

func NewNotificationService(repo repository.NotificationRepository, mail mailer.Mailer) NotificationService {
	return &notificationService{repo: repo, mail: mail}
}

func (s *notificationService) NotifyOrder(userID uint, email, title, emailSubject, message string) {
	n := &model.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    model.TypeOrder,
	}
	if err := s.repo.Create(n); err != nil {
		logger.Log.Warn("failed to persist notification",
			zap.Uint("user_id", userID), zap.Error(err))
	}

	s.SendEmail(email, emailSubject, message)
}

func (s *notificationService) NotifyOrderBatch(userID uint, email, title, emailSubject string, messages []string) {
	if len(messages) == 0 {
		return
	}

	full := messages[0]
	for _, m := range messages[1:] {
		full += "\n\n" + m
	}

	s.NotifyOrder(userID, email, title, emailSubject, full)
}

func (s *notificationService) SendEmail(to, subject, body string) {
	if to == "" {
		return
	}
	if err := s.mail.Send(to, subject, body); err != nil {
		logger.Log.Warn("email send failed",
			zap.String("to", to), zap.String("subject", subject), zap.Error(err))
	}
}

func (s *notificationService) AdminEmail() string {
	return config.GlobalConfig.SMTP.AdminEmail
}

func (s *notificationService) List(userID uint, p *utils.Pagination) (*utils.PageResult, error) {
	offset, limit := p.GetPageOffset()
	list, total, err := s.repo.ListByUser(userID, offset, limit)
	if err != nil {
		return nil, err
	}
	return &utils.PageResult{List: list, Total: total, Page: p.Page, Limit: p.Limit}, nil
}

func (s *notificationService) MarkRead(id, userID uint) error {
	return s.repo.MarkRead(id, userID)
}

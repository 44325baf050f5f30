package notification

import (
	"context"
	"fmt"

	"github.com/clearlot-api/internal/domain"
	"github.com/clearlot-api/internal/pkg/validate"
)

// Service is the request-facing API over the per-user sessions of a Hub.
type Service interface {
	List(ctx context.Context, userID string) (View, error)
	Publish(ctx context.Context, in domain.NotificationInput) error
	MarkAsRead(ctx context.Context, userID, notificationID string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, notificationID string) error
	ClearAll(ctx context.Context, userID string) error
	// Watch streams Views of the user's session until the returned func is called.
	Watch(ctx context.Context, userID string, fn func(View)) (func(), error)
}

type service struct {
	hub *Hub
}

func NewService(hub *Hub) Service {
	return &service{hub: hub}
}

func (s *service) List(ctx context.Context, userID string) (View, error) {
	sess, release := s.hub.Acquire(ctx, userID)
	defer release()
	return sess.View(), nil
}

func (s *service) Publish(ctx context.Context, in domain.NotificationInput) error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	return s.hub.Publish(ctx, in)
}

func (s *service) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	sess, release := s.hub.Acquire(ctx, userID)
	defer release()
	return sess.MarkAsRead(ctx, notificationID)
}

func (s *service) MarkAllAsRead(ctx context.Context, userID string) error {
	sess, release := s.hub.Acquire(ctx, userID)
	defer release()
	return sess.MarkAllAsRead(ctx)
}

func (s *service) Delete(ctx context.Context, userID, notificationID string) error {
	sess, release := s.hub.Acquire(ctx, userID)
	defer release()
	return sess.Delete(ctx, notificationID)
}

func (s *service) ClearAll(ctx context.Context, userID string) error {
	sess, release := s.hub.Acquire(ctx, userID)
	defer release()
	return sess.ClearAll(ctx)
}

func (s *service) Watch(ctx context.Context, userID string, fn func(View)) (func(), error) {
	sess, release := s.hub.Acquire(ctx, userID)
	stop := sess.Watch(fn)
	return func() {
		stop()
		release()
	}, nil
}

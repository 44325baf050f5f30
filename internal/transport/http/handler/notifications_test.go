package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clearlot-api/internal/application/notification"
	"github.com/clearlot-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleView() notification.View {
	return notification.View{
		Notifications: []domain.Notification{
			{ID: "n2", UserID: "u1", Title: "Payment received"},
			{ID: "n1", UserID: "u1", Title: "Order shipped", Read: true},
		},
		UnreadCount: 1,
	}
}

func TestNotificationList_MissingClaims(t *testing.T) {
	h := NewNotificationHandler(&mockNotificationSvc{})
	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/v1/notifications", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestNotificationList_ReturnsView(t *testing.T) {
	svc := &mockNotificationSvc{}
	svc.On("List", mock.Anything, "u1").Return(sampleView(), nil)
	h := NewNotificationHandler(svc)

	rr := httptest.NewRecorder()
	h.List(rr, asUser(httptest.NewRequest(http.MethodGet, "/v1/notifications", nil), "u1", domain.RoleBuyer))

	require.Equal(t, http.StatusOK, rr.Code)
	var got notification.View
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Len(t, got.Notifications, 2)
	assert.Equal(t, 1, got.UnreadCount)
	svc.AssertExpectations(t)
}

func TestNotificationList_UnreadFilter(t *testing.T) {
	svc := &mockNotificationSvc{}
	svc.On("List", mock.Anything, "u1").Return(sampleView(), nil)
	h := NewNotificationHandler(svc)

	rr := httptest.NewRecorder()
	h.List(rr, asUser(httptest.NewRequest(http.MethodGet, "/v1/notifications?unread=true", nil), "u1", domain.RoleBuyer))

	require.Equal(t, http.StatusOK, rr.Code)
	var got notification.View
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	require.Len(t, got.Notifications, 1)
	assert.Equal(t, "n2", got.Notifications[0].ID)
}

func TestNotificationUnreadCount(t *testing.T) {
	svc := &mockNotificationSvc{}
	svc.On("List", mock.Anything, "u1").Return(sampleView(), nil)
	h := NewNotificationHandler(svc)

	rr := httptest.NewRecorder()
	h.UnreadCount(rr, asUser(httptest.NewRequest(http.MethodGet, "/v1/notifications/unread-count", nil), "u1", domain.RoleBuyer))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"unread_count":1}`, rr.Body.String())
}

func TestNotificationCreate_DefaultsToCaller(t *testing.T) {
	svc := &mockNotificationSvc{}
	svc.On("Publish", mock.Anything, mock.MatchedBy(func(in domain.NotificationInput) bool {
		return in.UserID == "u1" && in.Title == "Hello"
	})).Return(nil)
	h := NewNotificationHandler(svc)

	body := []byte(`{"type":"system","title":"Hello","message":"World"}`)
	r := asUser(httptest.NewRequest(http.MethodPost, "/v1/notifications", bytes.NewReader(body)), "u1", domain.RoleBuyer)
	rr := httptest.NewRecorder()
	h.Create(rr, r)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	svc.AssertExpectations(t)
}

func TestNotificationCreate_OtherUserRequiresAdmin(t *testing.T) {
	svc := &mockNotificationSvc{}
	h := NewNotificationHandler(svc)

	body := []byte(`{"user_id":"u2","type":"system","title":"Hello","message":"World"}`)
	r := asUser(httptest.NewRequest(http.MethodPost, "/v1/notifications", bytes.NewReader(body)), "u1", domain.RoleSeller)
	rr := httptest.NewRecorder()
	h.Create(rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	svc.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestNotificationCreate_AdminMayAddressOthers(t *testing.T) {
	svc := &mockNotificationSvc{}
	svc.On("Publish", mock.Anything, mock.MatchedBy(func(in domain.NotificationInput) bool {
		return in.UserID == "u2"
	})).Return(nil)
	h := NewNotificationHandler(svc)

	body := []byte(`{"user_id":"u2","type":"system","title":"Hello","message":"World"}`)
	r := asUser(httptest.NewRequest(http.MethodPost, "/v1/notifications", bytes.NewReader(body)), "admin1", domain.RoleAdmin)
	rr := httptest.NewRecorder()
	h.Create(rr, r)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	svc.AssertExpectations(t)
}

func TestNotificationCreate_InvalidBody(t *testing.T) {
	h := NewNotificationHandler(&mockNotificationSvc{})

	for name, body := range map[string]string{
		"not json":      `not-json`,
		"missing title": `{"type":"system","message":"World"}`,
	} {
		t.Run(name, func(t *testing.T) {
			r := asUser(httptest.NewRequest(http.MethodPost, "/v1/notifications", bytes.NewBufferString(body)), "u1", domain.RoleBuyer)
			rr := httptest.NewRecorder()
			h.Create(rr, r)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestNotificationMarkAsRead(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"store down", domain.ErrUnavailable, http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockNotificationSvc{}
			svc.On("MarkAsRead", mock.Anything, "u1", "n1").Return(tc.err)
			h := NewNotificationHandler(svc)

			r := withURLParams(httptest.NewRequest(http.MethodPut, "/v1/notifications/n1/read", nil), "id", "n1")
			rr := httptest.NewRecorder()
			h.MarkAsRead(rr, asUser(r, "u1", domain.RoleBuyer))

			assert.Equal(t, tc.want, rr.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestNotificationUnexpectedErrorHidesDetail(t *testing.T) {
	svc := &mockNotificationSvc{}
	svc.On("MarkAllAsRead", mock.Anything, "u1").Return(errors.New("dynamodb: secret detail"))
	h := NewNotificationHandler(svc)

	rr := httptest.NewRecorder()
	h.MarkAllAsRead(rr, asUser(httptest.NewRequest(http.MethodPut, "/v1/notifications/read-all", nil), "u1", domain.RoleBuyer))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "secret")
}

func TestNotificationDeleteAndClear(t *testing.T) {
	svc := &mockNotificationSvc{}
	svc.On("Delete", mock.Anything, "u1", "n1").Return(nil)
	svc.On("ClearAll", mock.Anything, "u1").Return(nil)
	h := NewNotificationHandler(svc)

	rr := httptest.NewRecorder()
	r := withURLParams(httptest.NewRequest(http.MethodDelete, "/v1/notifications/n1", nil), "id", "n1")
	h.Delete(rr, asUser(r, "u1", domain.RoleBuyer))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	h.ClearAll(rr, asUser(httptest.NewRequest(http.MethodDelete, "/v1/notifications", nil), "u1", domain.RoleBuyer))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	svc.AssertExpectations(t)
}

package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clearlot-api/internal/domain"
	"github.com/clearlot-api/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:        "test-store",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		MinRequests: 2,
		FailureRate: 0.5,
	}
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	st := &mockStore{}
	st.On("List", mock.Anything, "u1").Return(nil, errors.New("throttled"))
	s := WithBreaker(st, testBreakerSettings())

	_, err := s.List(context.Background(), "u1")
	assert.NotErrorIs(t, err, domain.ErrUnavailable)
	_, err = s.List(context.Background(), "u1")
	assert.NotErrorIs(t, err, domain.ErrUnavailable)

	_, err = s.List(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	st.AssertNumberOfCalls(t, "List", 2)
}

func TestBreaker_NotFoundIsNotAFailure(t *testing.T) {
	st := &mockStore{}
	st.On("MarkAsRead", mock.Anything, "x").Return(domain.ErrNotFound)
	s := WithBreaker(st, testBreakerSettings())

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, s.MarkAsRead(context.Background(), "x"), domain.ErrNotFound)
	}
	st.AssertNumberOfCalls(t, "MarkAsRead", 5)
}

func TestBreaker_PassesResultsThrough(t *testing.T) {
	st := &mockStore{}
	st.On("Add", mock.Anything, mock.Anything).Return("n1", t0, nil)
	st.On("List", mock.Anything, "u1").Return([]domain.Notification{{ID: "n1"}}, nil)
	st.On("Subscribe", mock.Anything, "u1", mock.Anything).Return(func() {}, nil)
	s := WithBreaker(st, testBreakerSettings())

	id, at, err := s.Add(context.Background(), domain.NotificationInput{UserID: "u1"})
	assert.NoError(t, err)
	assert.Equal(t, "n1", id)
	assert.Equal(t, t0, at)

	list, err := s.List(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Len(t, list, 1)

	stop, err := s.Subscribe(context.Background(), "u1", func(domain.NotificationChange) {})
	assert.NoError(t, err)
	assert.NotNil(t, stop)
}

func TestBreaker_StoreErrorMetricSkipsNotFound(t *testing.T) {
	st := &mockStore{}
	st.On("Delete", mock.Anything, "gone").Return(domain.ErrNotFound)
	st.On("Delete", mock.Anything, "boom").Return(errors.New("throttled"))
	s := WithBreaker(st, testBreakerSettings())
	counter := metrics.NotificationStoreErrors.WithLabelValues("delete")
	before := testutil.ToFloat64(counter)

	assert.ErrorIs(t, s.Delete(context.Background(), "gone"), domain.ErrNotFound)
	assert.Equal(t, before, testutil.ToFloat64(counter))

	assert.Error(t, s.Delete(context.Background(), "boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

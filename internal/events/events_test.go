package events_test

import (
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/events"
	"github.com/spoke-d/dispatchd/internal/events/mocks"
)

//go:generate mockgen -package mocks -destination mocks/broadcaster_mock.go github.com/spoke-d/dispatchd/internal/events Broadcaster
//go:generate mockgen -package mocks -destination mocks/clock_mock.go github.com/spoke-d/dispatchd/internal/clock Clock

func TestHubSend(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBroadcaster := mocks.NewMockBroadcaster(ctrl)
	mockClock := mocks.NewMockClock(ctrl)

	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	metadata := map[string]interface{}{"id": int64(1)}

	gomock.InOrder(
		mockClock.EXPECT().UTC().Return(now),
		mockBroadcaster.EXPECT().Dispatch(map[string]interface{}{
			"type":      events.TypeJob,
			"action":    "job-created",
			"timestamp": now,
			"metadata":  metadata,
		}).Return(nil),
	)

	hub := events.New(mockBroadcaster, events.WithClock(mockClock))
	hub.Send(events.TypeJob, "job-created", metadata)
}

func TestHubSendSwallowsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBroadcaster := mocks.NewMockBroadcaster(ctrl)
	mockBroadcaster.EXPECT().Dispatch(gomock.Any()).Return(errors.New("bad"))

	hub := events.New(mockBroadcaster)
	hub.Send(events.TypeHost, "host-registered", nil)
}

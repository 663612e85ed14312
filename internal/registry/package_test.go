package registry_test

//go:generate mockgen -package mocks -destination mocks/clock_mock.go github.com/spoke-d/dispatchd/internal/clock Clock
//go:generate mockgen -package mocks -destination mocks/failover_mock.go github.com/spoke-d/dispatchd/internal/registry Failover
//go:generate mockgen -package mocks -destination mocks/sender_mock.go github.com/spoke-d/dispatchd/internal/events Sender

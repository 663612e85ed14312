package failover_test

//go:generate mockgen -package mocks -destination mocks/clock_mock.go github.com/spoke-d/dispatchd/internal/clock Clock

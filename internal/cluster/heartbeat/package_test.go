package heartbeat_test

//go:generate mockgen -package mocks -destination mocks/registry_mock.go github.com/spoke-d/dispatchd/internal/cluster/heartbeat Registry

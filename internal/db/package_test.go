package db_test

//go:generate mockgen -package mocks -destination mocks/db_mock.go github.com/spoke-d/dispatchd/internal/db/database DB,Tx,Rows
//go:generate mockgen -package mocks -destination mocks/query_mock.go github.com/spoke-d/dispatchd/internal/db Query,QueryCluster,Transaction
//go:generate mockgen -package mocks -destination mocks/cluster_mock.go github.com/spoke-d/dispatchd/internal/db ClusterTxProvider
//go:generate mockgen -package mocks -destination mocks/clock_mock.go github.com/spoke-d/dispatchd/internal/clock Clock
//go:generate mockgen -package mocks -destination mocks/sleeper_mock.go github.com/spoke-d/dispatchd/internal/clock Sleeper
//go:generate mockgen -package mocks -destination mocks/result_mock.go database/sql Result

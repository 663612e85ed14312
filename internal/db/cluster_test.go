package db_test

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/db/database"
	"github.com/spoke-d/dispatchd/internal/db/mocks"
)

func TestClusterTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockQueryCluster := mocks.NewMockQueryCluster(ctrl)
	mockDB := mocks.NewMockDB(ctrl)
	mockTx := mocks.NewMockTx(ctrl)
	mockTransaction := mocks.NewMockTransaction(ctrl)
	mockProvider := mocks.NewMockClusterTxProvider(ctrl)

	clusterTx := db.NewClusterTx(mockTx)

	gomock.InOrder(
		mockQueryCluster.EXPECT().DB().Return(mockDB),
		mockTransaction.EXPECT().Transaction(mockDB, gomock.Any()).DoAndReturn(func(_ database.DB, fn func(database.Tx) error) error {
			return fn(mockTx)
		}),
		mockProvider.EXPECT().New(mockTx).Return(clusterTx),
	)

	cluster := db.NewCluster(
		mockQueryCluster,
		db.WithTransactionForCluster(mockTransaction),
		db.WithClusterTxProviderForCluster(mockProvider),
	)
	var called bool
	err := cluster.Transaction(func(tx *db.ClusterTx) error {
		called = tx == clusterTx
		return nil
	})
	if err != nil {
		t.Errorf("expected err to be nil: %v", err)
	}
	if !called {
		t.Errorf("expected transaction function to receive the provided ClusterTx")
	}
}

func TestClusterTransactionRetriesLockedDatabase(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockQueryCluster := mocks.NewMockQueryCluster(ctrl)
	mockDB := mocks.NewMockDB(ctrl)
	mockTransaction := mocks.NewMockTransaction(ctrl)
	mockSleeper := mocks.NewMockSleeper(ctrl)

	locked := sqlite3.Error{Code: sqlite3.ErrBusy}

	mockQueryCluster.EXPECT().DB().Return(mockDB).Times(2)
	mockSleeper.EXPECT().Sleep(gomock.Any()).AnyTimes()
	gomock.InOrder(
		mockTransaction.EXPECT().Transaction(mockDB, gomock.Any()).Return(errors.WithStack(locked)),
		mockTransaction.EXPECT().Transaction(mockDB, gomock.Any()).Return(nil),
	)

	cluster := db.NewCluster(
		mockQueryCluster,
		db.WithTransactionForCluster(mockTransaction),
		db.WithSleeperForCluster(mockSleeper),
	)
	err := cluster.Transaction(func(tx *db.ClusterTx) error {
		return nil
	})
	if err != nil {
		t.Errorf("expected err to be nil: %v", err)
	}
}

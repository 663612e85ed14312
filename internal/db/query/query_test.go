package query_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db/database"
	"github.com/spoke-d/dispatchd/internal/db/query"
	"github.com/stretchr/testify/require"
	"gotest.tools/assert"
)

const testSchema = `
CREATE TABLE hosts (id INTEGER PRIMARY KEY AUTOINCREMENT, base_url TEXT NOT NULL UNIQUE, max_jobs INTEGER NOT NULL DEFAULT 0);
CREATE TABLE config (id INTEGER PRIMARY KEY AUTOINCREMENT, key TEXT NOT NULL UNIQUE, value TEXT);
INSERT INTO hosts (base_url, max_jobs) VALUES ('http://worker-1:9000', 4);
INSERT INTO hosts (base_url, max_jobs) VALUES ('http://worker-2:9000', 8);
INSERT INTO config (key, value) VALUES ('dispatch.rate', '10');
INSERT INTO config (key, value) VALUES ('hosts.max_jobs', '2');
`

func newDB(t *testing.T) database.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	return database.NewShimDB(db)
}

func transaction(t *testing.T, db database.DB, f func(database.Tx)) {
	t.Helper()

	require.NoError(t, query.Transaction(db, func(tx database.Tx) error {
		f(tx)
		return nil
	}))
}

func TestTransactionRollback(t *testing.T) {
	db := newDB(t)

	boom := errors.New("boom")
	err := query.Transaction(db, func(tx database.Tx) error {
		if _, err := tx.Exec("DELETE FROM hosts"); err != nil {
			return err
		}
		return boom
	})
	if expected, actual := boom, errors.Cause(err); expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}

	transaction(t, db, func(tx database.Tx) {
		count, err := query.Count(tx, "hosts", "")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestSelectObjects(t *testing.T) {
	db := newDB(t)

	type host struct {
		BaseURL string
		MaxJobs int
	}
	var hosts []host
	transaction(t, db, func(tx database.Tx) {
		err := query.SelectObjects(tx, func(i int) []interface{} {
			hosts = append(hosts, host{})
			return []interface{}{&hosts[i].BaseURL, &hosts[i].MaxJobs}
		}, "SELECT base_url, max_jobs FROM hosts ORDER BY base_url")
		require.NoError(t, err)
	})
	require.Equal(t, []host{
		{BaseURL: "http://worker-1:9000", MaxJobs: 4},
		{BaseURL: "http://worker-2:9000", MaxJobs: 8},
	}, hosts)

	transaction(t, db, func(tx database.Tx) {
		err := query.SelectObjects(tx, func(int) []interface{} {
			return make([]interface{}, 1)
		}, "SELECT base_url, max_jobs FROM hosts")
		assert.Equal(t, "sql: expected 2 destination arguments in Scan, not 1", errors.Cause(err).Error())
	})
}

func TestUpsertAndDeleteObject(t *testing.T) {
	db := newDB(t)

	transaction(t, db, func(tx database.Tx) {
		id, err := query.UpsertObject(tx, "hosts", []string{"base_url", "max_jobs"}, []interface{}{"http://worker-3:9000", 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), id)

		_, err = query.UpsertObject(tx, "hosts", []string{"base_url"}, []interface{}{})
		assert.Error(t, err, "columns length does not match values length")

		_, err = query.UpsertObject(tx, "hosts", nil, nil)
		assert.Error(t, err, "columns length is zero")

		deleted, err := query.DeleteObject(tx, "hosts", id)
		require.NoError(t, err)
		assert.Equal(t, true, deleted)

		deleted, err = query.DeleteObject(tx, "hosts", id)
		require.NoError(t, err)
		assert.Equal(t, false, deleted)
	})
}

func TestCount(t *testing.T) {
	db := newDB(t)

	transaction(t, db, func(tx database.Tx) {
		count, err := query.Count(tx, "hosts", "max_jobs > ?", 4)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		_, err = query.Count(tx, "missing", "")
		if err == nil {
			t.Error("expected err")
		}
	})
}

func TestSelectSlices(t *testing.T) {
	db := newDB(t)

	transaction(t, db, func(tx database.Tx) {
		urls, err := query.SelectStrings(tx, "SELECT base_url FROM hosts ORDER BY id")
		require.NoError(t, err)
		require.Equal(t, []string{"http://worker-1:9000", "http://worker-2:9000"}, urls)

		jobs, err := query.SelectIntegers(tx, "SELECT max_jobs FROM hosts WHERE max_jobs > ? ORDER BY id", 100)
		require.NoError(t, err)
		assert.Equal(t, 0, len(jobs))
	})
}

func TestConfig(t *testing.T) {
	db := newDB(t)

	transaction(t, db, func(tx database.Tx) {
		values, err := query.SelectConfig(tx, "config", "key=?", "dispatch.rate")
		require.NoError(t, err)
		require.Equal(t, map[string]string{"dispatch.rate": "10"}, values)

		err = query.UpdateConfig(tx, "config", map[string]string{
			"dispatch.rate":      "20",
			"hosts.max_jobs":     "",
			"heartbeat.interval": "30",
		})
		require.NoError(t, err)

		values, err = query.SelectConfig(tx, "config", "")
		require.NoError(t, err)
		require.Equal(t, map[string]string{
			"dispatch.rate":      "20",
			"heartbeat.interval": "30",
		}, values)
	})
}

func TestParams(t *testing.T) {
	for n, expected := range map[int]string{0: "()", 1: "(?)", 3: "(?, ?, ?)"} {
		if actual := query.Params(n); expected != actual {
			t.Errorf("expected: %q, actual: %q", expected, actual)
		}
	}
}

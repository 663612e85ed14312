package db

import (
	"github.com/pkg/errors"
)

// ServiceStatistics summarizes the jobs processed by a service.
type ServiceStatistics struct {
	ServiceID     int64 `json:"service_id" yaml:"service_id"`
	Running       int64 `json:"running" yaml:"running"`
	Queued        int64 `json:"queued" yaml:"queued"`
	MeanQueueTime int64 `json:"mean_queue_time" yaml:"mean_queue_time"`
	MeanRunTime   int64 `json:"mean_run_time" yaml:"mean_run_time"`
}

// HostLoads counts the jobs occupying each available host, keyed by base
// url. Jobs of the excluded service type are left out.
func (c *ClusterTx) HostLoads(excludeType string) (map[string]int64, error) {
	var (
		hosts  []string
		counts []int64
	)
	dest := func(i int) []interface{} {
		hosts = append(hosts, "")
		counts = append(counts, 0)
		return []interface{}{&hosts[i], &counts[i]}
	}
	stmt := `
SELECT h.base_url, COUNT(j.id)
  FROM jobs AS j
  JOIN services AS s ON s.id = j.processor_service_id
  JOIN hosts AS h ON h.id = s.host_id
 WHERE j.status IN (?, ?) AND s.service_type!=? AND s.active=1
   AND h.online=1 AND h.active=1 AND h.maintenance=0
 GROUP BY h.base_url
 ORDER BY h.base_url`
	err := c.query.SelectObjects(c.tx, dest, stmt, StatusDispatching, StatusRunning, excludeType)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch host loads")
	}
	loads := make(map[string]int64, len(hosts))
	for i, host := range hosts {
		loads[host] = counts[i]
	}
	return loads, nil
}

// ServiceStatistics returns job statistics for every registered service.
// Mean times only consider finished jobs.
func (c *ClusterTx) ServiceStatistics() ([]ServiceStatistics, error) {
	var (
		stats     []ServiceStatistics
		queueTime []float64
		runTime   []float64
	)
	dest := func(i int) []interface{} {
		stats = append(stats, ServiceStatistics{})
		queueTime = append(queueTime, 0)
		runTime = append(runTime, 0)
		return []interface{}{
			&stats[i].ServiceID,
			&stats[i].Running,
			&stats[i].Queued,
			&queueTime[i],
			&runTime[i],
		}
	}
	stmt := `
SELECT s.id,
       COALESCE(SUM(CASE WHEN j.status=? THEN 1 ELSE 0 END), 0),
       COALESCE(SUM(CASE WHEN j.status IN (?, ?) THEN 1 ELSE 0 END), 0),
       COALESCE(AVG(CASE WHEN j.status=? THEN j.queue_time END), 0),
       COALESCE(AVG(CASE WHEN j.status=? THEN j.run_time END), 0)
  FROM services AS s
  LEFT JOIN jobs AS j ON j.processor_service_id = s.id
 GROUP BY s.id
 ORDER BY s.id`
	err := c.query.SelectObjects(
		c.tx, dest, stmt,
		StatusRunning,
		StatusQueued, StatusDispatching,
		StatusFinished,
		StatusFinished,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch service statistics")
	}
	for i := range stats {
		stats[i].MeanQueueTime = int64(queueTime[i])
		stats[i].MeanRunTime = int64(runTime[i])
	}
	return stats, nil
}

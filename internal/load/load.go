// Package load computes host loads and ranks the services a job can be
// dispatched to.
package load

import (
	"math"

	"github.com/spoke-d/dispatchd/internal/db"
	"golang.org/x/exp/slices"
)

// buckets per unit of load factor. Factors falling into the same bucket
// are considered equal.
const buckets = 100

// NodeLoad is the load of a single host.
type NodeLoad struct {
	Host        string `json:"host" yaml:"host"`
	CurrentLoad int64  `json:"current_load" yaml:"current_load"`
	MaxLoad     int64  `json:"max_load" yaml:"max_load"`
}

// LoadFactor is the share of the host capacity in use. A host without
// capacity is infinitely loaded.
func (n NodeLoad) LoadFactor() float64 {
	if n.MaxLoad <= 0 {
		return math.Inf(1)
	}
	return float64(n.CurrentLoad) / float64(n.MaxLoad)
}

// Exceeds reports whether the host has no spare capacity left.
func (n NodeLoad) Exceeds() bool {
	return n.CurrentLoad >= n.MaxLoad
}

// SystemLoad maps a host base url to its load.
type SystemLoad map[string]NodeLoad

// Compute the load of every available host from the per-host job counts.
func Compute(hosts []db.Host, counts map[string]int64) SystemLoad {
	load := make(SystemLoad, len(hosts))
	for _, host := range hosts {
		if !host.Available() {
			continue
		}
		load[host.BaseURL] = NodeLoad{
			Host:        host.BaseURL,
			CurrentLoad: counts[host.BaseURL],
			MaxLoad:     host.MaxJobs,
		}
	}
	return load
}

// Max returns the capacity of every available host.
func Max(hosts []db.Host) SystemLoad {
	return Compute(hosts, nil)
}

// Increment accounts for one more job on the host.
func (s SystemLoad) Increment(host string) {
	if n, ok := s[host]; ok {
		n.CurrentLoad++
		s[host] = n
	}
}

// Candidates returns the services able to take a job of the given type,
// best first.
//
// With limited set, hosts without spare capacity are left out.
func Candidates(jobType string, services []db.Service, hosts []db.Host, load SystemLoad, limited bool) []db.Service {
	available := make(map[int64]bool, len(hosts))
	for _, host := range hosts {
		available[host.ID] = host.Available()
	}

	var candidates []db.Service
	for _, service := range services {
		if service.ServiceType != jobType {
			continue
		}
		if !available[service.HostID] || service.Maintenance {
			continue
		}
		if !service.Online || !service.Active || service.State == db.StateError {
			continue
		}
		n, ok := load[service.Host]
		if !ok {
			continue
		}
		if limited && n.Exceeds() {
			continue
		}
		candidates = append(candidates, service)
	}

	Rank(candidates, load)
	return candidates
}

// Rank sorts services by ascending load factor of their host. Hosts whose
// load factors round to the same hundredth prefer NORMAL services before
// WARNING ones, then the bigger host.
func Rank(services []db.Service, load SystemLoad) {
	slices.SortStableFunc(services, func(a, b db.Service) int {
		return compare(a, b, load)
	})
}

func bucket(n NodeLoad) int64 {
	f := n.LoadFactor()
	if math.IsInf(f, 1) {
		return math.MaxInt64
	}
	return int64(math.Round(f * buckets))
}

func compare(a, b db.Service, load SystemLoad) int {
	la, lb := load[a.Host], load[b.Host]
	ba, bb := bucket(la), bucket(lb)
	switch {
	case ba < bb:
		return -1
	case ba > bb:
		return 1
	}
	switch {
	case a.State < b.State:
		return -1
	case a.State > b.State:
		return 1
	}
	switch {
	case la.MaxLoad > lb.MaxLoad:
		return -1
	case la.MaxLoad < lb.MaxLoad:
		return 1
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

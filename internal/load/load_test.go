package load_test

import (
	"math"
	"testing"

	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/load"
)

func hosts() []db.Host {
	return []db.Host{
		{ID: 1, BaseURL: "http://a", MaxJobs: 4, Online: true, Active: true},
		{ID: 2, BaseURL: "http://b", MaxJobs: 2, Online: true, Active: true},
		{ID: 3, BaseURL: "http://c", MaxJobs: 8, Online: true, Active: true, Maintenance: true},
		{ID: 4, BaseURL: "http://d", MaxJobs: 8, Online: false, Active: true},
	}
}

func service(id, hostID int64, host, serviceType string) db.Service {
	return db.Service{
		ID:          id,
		HostID:      hostID,
		Host:        host,
		ServiceType: serviceType,
		Online:      true,
		Active:      true,
	}
}

func ids(services []db.Service) []int64 {
	var result []int64
	for _, s := range services {
		result = append(result, s.ID)
	}
	return result
}

func equal(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestComputeSkipsUnavailableHosts(t *testing.T) {
	l := load.Compute(hosts(), map[string]int64{"http://a": 3, "http://c": 1})

	if expected, actual := 2, len(l); expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
	if expected, actual := (load.NodeLoad{Host: "http://a", CurrentLoad: 3, MaxLoad: 4}), l["http://a"]; expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
	if expected, actual := int64(0), l["http://b"].CurrentLoad; expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
}

func TestLoadFactor(t *testing.T) {
	if expected, actual := 0.5, (load.NodeLoad{CurrentLoad: 1, MaxLoad: 2}).LoadFactor(); expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
	if !math.IsInf((load.NodeLoad{CurrentLoad: 1}).LoadFactor(), 1) {
		t.Errorf("expected a host without capacity to be infinitely loaded")
	}
}

func TestCandidatesRankByLoadFactor(t *testing.T) {
	services := []db.Service{
		service(10, 1, "http://a", "compose"),
		service(11, 2, "http://b", "compose"),
	}
	l := load.Compute(hosts(), map[string]int64{"http://a": 3, "http://b": 0})

	candidates := load.Candidates("compose", services, hosts(), l, true)
	if expected, actual := []int64{11, 10}, ids(candidates); !equal(expected, actual) {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
}

func TestCandidatesPreferBiggerHostOnTie(t *testing.T) {
	services := []db.Service{
		service(11, 2, "http://b", "compose"),
		service(10, 1, "http://a", "compose"),
	}
	l := load.Compute(hosts(), map[string]int64{"http://a": 2, "http://b": 1})

	candidates := load.Candidates("compose", services, hosts(), l, true)
	if expected, actual := []int64{10, 11}, ids(candidates); !equal(expected, actual) {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
}

func TestCandidatesPreferNormalOverWarning(t *testing.T) {
	hs := []db.Host{
		{ID: 1, BaseURL: "http://a", MaxJobs: 4, Online: true, Active: true},
		{ID: 2, BaseURL: "http://b", MaxJobs: 4, Online: true, Active: true},
	}
	warning := service(10, 1, "http://a", "compose")
	warning.State = db.StateWarning
	normal := service(11, 2, "http://b", "compose")

	l := load.Compute(hs, nil)
	candidates := load.Candidates("compose", []db.Service{warning, normal}, hs, l, true)
	if expected, actual := []int64{11, 10}, ids(candidates); !equal(expected, actual) {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
}

func TestCandidatesPreferNormalOverBiggerHost(t *testing.T) {
	hs := []db.Host{
		{ID: 1, BaseURL: "http://a", MaxJobs: 4, Online: true, Active: true},
		{ID: 2, BaseURL: "http://b", MaxJobs: 2, Online: true, Active: true},
	}
	warning := service(10, 1, "http://a", "compose")
	warning.State = db.StateWarning
	normal := service(11, 2, "http://b", "compose")

	l := load.Compute(hs, nil)
	candidates := load.Candidates("compose", []db.Service{warning, normal}, hs, l, true)
	if expected, actual := []int64{11, 10}, ids(candidates); !equal(expected, actual) {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
}

func TestRankIsIndependentOfInputOrder(t *testing.T) {
	// 0.000, 0.006 and 0.012 are pairwise close, but only the last two
	// share a hundredth.
	l := load.SystemLoad{
		"http://a": {Host: "http://a", CurrentLoad: 0, MaxLoad: 1000},
		"http://b": {Host: "http://b", CurrentLoad: 6, MaxLoad: 1000},
		"http://c": {Host: "http://c", CurrentLoad: 12, MaxLoad: 1000},
	}
	a := service(10, 1, "http://a", "compose")
	a.State = db.StateWarning
	b := service(11, 2, "http://b", "compose")
	b.State = db.StateWarning
	c := service(12, 3, "http://c", "compose")

	for _, order := range [][]db.Service{
		{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
	} {
		load.Rank(order, l)
		if expected, actual := []int64{10, 12, 11}, ids(order); !equal(expected, actual) {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}
	}
}

func TestCandidatesFiltering(t *testing.T) {
	errored := service(12, 1, "http://a", "compose")
	errored.State = db.StateError
	offline := service(13, 1, "http://a", "compose")
	offline.Online = false
	disabled := service(14, 1, "http://a", "compose")
	disabled.Active = false
	services := []db.Service{
		service(10, 1, "http://a", "compose"),
		service(11, 1, "http://a", "inspect"),
		errored,
		offline,
		disabled,
		service(15, 3, "http://c", "compose"),
		service(16, 4, "http://d", "compose"),
	}
	l := load.Compute(hosts(), nil)

	candidates := load.Candidates("compose", services, hosts(), l, false)
	if expected, actual := []int64{10}, ids(candidates); !equal(expected, actual) {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
}

func TestCandidatesLimitedSkipsFullHosts(t *testing.T) {
	services := []db.Service{
		service(10, 1, "http://a", "compose"),
		service(11, 2, "http://b", "compose"),
	}
	l := load.Compute(hosts(), map[string]int64{"http://b": 2})

	limited := load.Candidates("compose", services, hosts(), l, true)
	if expected, actual := []int64{10}, ids(limited); !equal(expected, actual) {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}

	full := load.Candidates("compose", services, hosts(), l, false)
	if expected, actual := []int64{10, 11}, ids(full); !equal(expected, actual) {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
}

func TestIncrement(t *testing.T) {
	l := load.Compute(hosts(), nil)
	l.Increment("http://a")
	l.Increment("http://unknown")

	if expected, actual := int64(1), l["http://a"].CurrentLoad; expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
	if _, ok := l["http://unknown"]; ok {
		t.Errorf("expected unknown hosts to stay unknown")
	}
}

package db

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
)

// Job types and operations that the dispatcher and the cleanup routines
// treat specially.
const (
	// WorkflowType is the job type of the workflow orchestration service.
	// Its jobs balance themselves, so they are left out of host loads and
	// of the failover state machine.
	WorkflowType = "workflow"

	OperationStartWorkflow  = "START_WORKFLOW"
	OperationStartOperation = "START_OPERATION"
	OperationResume         = "RESUME"
)

// JobStatus is the lifecycle state of a job.
type JobStatus int

// Job statuses. The ordinal is what gets persisted.
const (
	StatusInstantiated JobStatus = iota
	StatusQueued
	StatusPaused
	StatusRunning
	StatusFinished
	StatusFailed
	StatusDeleted
	StatusWaiting
	StatusDispatching
	StatusRestart
	StatusCanceled
)

var jobStatusNames = []string{
	"INSTANTIATED",
	"QUEUED",
	"PAUSED",
	"RUNNING",
	"FINISHED",
	"FAILED",
	"DELETED",
	"WAITING",
	"DISPATCHING",
	"RESTART",
	"CANCELED",
}

func (s JobStatus) String() string {
	if s < 0 || int(s) >= len(jobStatusNames) {
		return "UNKNOWN"
	}
	return jobStatusNames[s]
}

// Terminated reports whether the job will never run again.
func (s JobStatus) Terminated() bool {
	switch s {
	case StatusFinished, StatusFailed, StatusDeleted, StatusCanceled:
		return true
	}
	return false
}

// Active reports whether the job occupies a slot on its processing host.
func (s JobStatus) Active() bool {
	switch s {
	case StatusDispatching, StatusRunning, StatusWaiting:
		return true
	}
	return false
}

// MarshalText encodes the status by name.
func (s JobStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *JobStatus) UnmarshalText(text []byte) error {
	status, err := ParseJobStatus(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// ParseJobStatus returns the status with the given name.
func ParseJobStatus(name string) (JobStatus, error) {
	for i, n := range jobStatusNames {
		if n == name {
			return JobStatus(i), nil
		}
	}
	return -1, errors.Errorf("unknown job status %q", name)
}

// HealthState is the failover health of a service.
type HealthState int

// Health states.
const (
	StateNormal HealthState = iota
	StateWarning
	StateError
)

var healthStateNames = []string{"NORMAL", "WARNING", "ERROR"}

func (s HealthState) String() string {
	if s < 0 || int(s) >= len(healthStateNames) {
		return "UNKNOWN"
	}
	return healthStateNames[s]
}

// MarshalText encodes the state by name.
func (s HealthState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *HealthState) UnmarshalText(text []byte) error {
	for i, n := range healthStateNames {
		if n == string(text) {
			*s = HealthState(i)
			return nil
		}
	}
	return errors.Errorf("unknown health state %q", string(text))
}

// Severity of an incident.
type Severity int

// Severities, most severe first.
const (
	SeverityFailure Severity = iota
	SeverityError
	SeverityWarning
	SeverityInfo
)

var severityNames = []string{"FAILURE", "ERROR", "WARNING", "INFO"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "UNKNOWN"
	}
	return severityNames[s]
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	for i, n := range severityNames {
		if n == string(text) {
			*s = Severity(i)
			return nil
		}
	}
	return errors.Errorf("unknown severity %q", string(text))
}

// Signature derives the failover correlation key of a job from its type
// and operation.
func Signature(jobType, operation string) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], xxh3.HashString(jobType+"@"+operation))
	return hex.EncodeToString(buf[:])
}

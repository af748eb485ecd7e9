package jobs

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when a job id isn't in the table.
	ErrJobNotFound = errors.New("job not found")
	// ErrNoStoppedJobs is returned when there is no stopped job to resume.
	ErrNoStoppedJobs = errors.New("there is no stopped jobs to resume")
	// ErrEmpty is returned when the table holds no jobs.
	ErrEmpty = errors.New("jobs list is empty")
)

// NotFoundError names the job id that couldn't be found.
type NotFoundError struct {
	JobID int
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("job-id %d does not exist", e.JobID)
}

// Is makes NotFoundError match ErrJobNotFound.
func (e NotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

package main

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/exec"
)

func contains(a []string, b string) bool {
	for _, v := range a {
		if v == b {
			return true
		}
	}
	return false
}

// run executes fn until it returns or the process is interrupted.
func run(fn func() error) error {
	g := exec.NewGroup()
	exec.Block(g)
	g.Add(fn, func(error) {})
	exec.Interrupt(g)
	return errors.WithStack(g.Run())
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid id %q", arg)
	}
	return id, nil
}

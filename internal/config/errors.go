package config

import (
	"fmt"
	"sort"
)

// Error describes a value that could not be assigned to a key.
type Error struct {
	Name   string
	Value  interface{}
	Reason string
}

func (e Error) Error() string {
	return fmt.Sprintf("cannot set '%s' to '%v': %s", e.Name, e.Value, e.Reason)
}

// ErrorList collects the errors of a load or change, sorted by key name.
type ErrorList []*Error

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0], len(l)-1)
}

// Add an error to the list.
func (l *ErrorList) Add(name string, value interface{}, reason string) {
	*l = append(*l, &Error{Name: name, Value: value, Reason: reason})
}

func (l ErrorList) sort() {
	sort.Slice(l, func(i, j int) bool { return l[i].Name < l[j].Name })
}

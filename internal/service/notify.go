package service

import (
	"context"
	"sync"
)

type notification struct {
	name string
	send func(ctx context.Context) error
}

// fanOut sends every notification concurrently and waits for all of them.
// The returned slice holds one error (or nil) per notification, in input order.
func fanOut(ctx context.Context, notes ...notification) []error {
	errs := make([]error, len(notes))
	var wg sync.WaitGroup
	for i, n := range notes {
		i, n := i, n
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = n.send(ctx)
		}()
	}
	wg.Wait()
	return errs
}

// warningsFrom turns failed notifications into user-facing warnings
func warningsFrom(notes []notification, errs []error) []string {
	var warnings []string
	for i, err := range errs {
		if err != nil {
			warnings = append(warnings, notes[i].name+": "+err.Error())
		}
	}
	return warnings
}

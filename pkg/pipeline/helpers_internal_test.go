package pipeline

import (
	"context"
	"testing"
)

// feed sends 0..total-1 on an unbuffered channel. With cancel set, it is called before sending cancelAt.
func feed(t *testing.T, total int, cancelAt int, cancel context.CancelFunc) chan int {
	t.Helper()

	in := make(chan int)

	go func() {
		defer close(in)

		for i := range total {
			if cancel != nil && i == cancelAt {
				cancel()
			}
			in <- i
		}
	}()

	return in
}

func drain[T any](t *testing.T, output <-chan T) []T {
	t.Helper()

	var res []T
	for out := range output {
		res = append(res, out)
	}

	return res
}

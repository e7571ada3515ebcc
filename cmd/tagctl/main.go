package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/golang/glog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := a.execute(ctx, os.Args[1:]); err != nil {
		var se *startupError
		if errors.As(err, &se) {
			glog.Fatalf("tagctl: %v", se.err)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

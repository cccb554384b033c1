/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
)

func main() {
	// Ctrl-C stops a replication between nodes, what was published so far stays recorded
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := Execute(ctx); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"context"
	"time"

	ping "github.com/digineo/go-fping"
)

func resolve(engine *ping.Engine, hosts []string, timeout time.Duration) ([]int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return engine.AddTargets(ctx, hosts...)
}

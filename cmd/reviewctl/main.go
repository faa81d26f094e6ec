package main

import (
	"context"

	"reviewlens-backend/cmd/reviewctl/commands"
	"reviewlens-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "reviewctl")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}

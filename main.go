package main

import (
	"log/slog"
	"os"

	"immich-album-frame/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		slog.Error("app failed", "error", err)
		os.Exit(1)
	}
}

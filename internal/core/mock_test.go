package core

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/agenthands/aurehal/internal/config"
	"github.com/agenthands/aurehal/internal/driver"
)

func newTestHarvester(ref driver.Referential, logs *bytes.Buffer) *Harvester {
	cfg := config.Default()
	cfg.Concurrency.Enrich = 3
	cfg.Server.HarvestTimeout = config.Duration{Duration: 5 * time.Second}

	h := NewHarvester(ref, cfg, nil, slog.New(slog.NewTextHandler(logs, nil)))

	counter := 0
	h.UUIDGenerator = func() string {
		counter++
		return fmt.Sprintf("harvest-%d", counter)
	}
	h.Now = func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return h
}

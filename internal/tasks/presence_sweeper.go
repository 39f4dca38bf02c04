package tasks

import (
	"log"
	"time"

	"github.com/saparbayev-azizbek-12/chat-app/internal/chat"
	"github.com/saparbayev-azizbek-12/chat-app/internal/metrics"

	"github.com/robfig/cron/v3"
)

// StartPresenceSweeper runs the staleness sweep on a schedule matching the
// presence window, so a silent client goes offline within one window of its
// last activity. Returns the scheduler so the caller can Stop it on
// shutdown.
func StartPresenceSweeper(presence *chat.PresenceTracker, every time.Duration) (*cron.Cron, error) {
	c := cron.New()

	spec := "@every " + every.String()
	_, err := c.AddFunc(spec, func() {
		flipped := presence.SweepStale(time.Now())
		metrics.PresenceSweeps.Inc()
		if len(flipped) > 0 {
			log.Printf("[TASKS] Presence sweep: %d user(s) went offline", len(flipped))
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Printf("[TASKS] Presence sweeper scheduled (%s)", spec)
	return c, nil
}

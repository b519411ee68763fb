package bot

import (
	"log"
	"time"

	"pin-archive-bot/config"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

var c *cron.Cron

// startScheduler starts the hourly pin maintenance sweep.
func startScheduler(b *Bot) {
	log.Println("Initializing scheduler...")
	c = cron.New()
	_, err := c.AddFunc("@hourly", func() {
		sweepPins(b)
	})
	if err != nil {
		log.Fatalf("Could not set up cron job: %v", err)
	}
	c.Start()
	log.Println("Pin maintenance sweep scheduled to run hourly.")

	if viper.GetBool(config.KeySweepAtStartup) {
		go func() {
			log.Println("Performing initial pin sweep on startup...")
			sweepPins(b)
		}()
	}
}

// sweepPins re-checks pin capacity in every channel that promoted a message
// recently, so pins added manually outside the bot cannot wedge a busy
// channel at the platform cap.
func sweepPins(b *Bot) {
	channels, err := b.Index.ActiveChannels(time.Now().Add(-24 * time.Hour))
	if err != nil {
		log.Printf("Pin sweep could not list active channels: %v", err)
		return
	}
	for _, channelID := range channels {
		if err := b.Slots.EnsureCapacity(channelID); err != nil {
			log.Printf("Pin sweep failed for channel %s: %v", channelID, err)
		}
	}
	if len(channels) > 0 {
		log.Printf("Pin sweep checked %d channels.", len(channels))
	}
}

// stopScheduler stops the cron jobs.
func stopScheduler() {
	if c != nil {
		c.Stop()
		log.Println("Scheduler stopped.")
	}
}

package main

import (
	"os"

	"lyricsync-go/logcolors"
	"lyricsync-go/lyric"
	"lyricsync-go/services/notifier"
	"lyricsync-go/stats"

	log "github.com/sirupsen/logrus"
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupNotifiers builds the notifier list from the environment. An
// empty list means infra alerts only go to the log.
func setupNotifiers() []notifier.Notifier {
	var notifiers []notifier.Notifier

	if botToken := os.Getenv("NOTIFIER_TELEGRAM_BOT_TOKEN"); botToken != "" {
		notifiers = append(notifiers, &notifier.TelegramNotifier{
			BotToken: botToken,
			ChatID:   os.Getenv("NOTIFIER_TELEGRAM_CHAT_ID"),
		})
		log.Infof("%s Telegram notifier enabled", logcolors.LogNotify)
	}

	if topic := os.Getenv("NOTIFIER_NTFY_TOPIC"); topic != "" {
		notifiers = append(notifiers, &notifier.NtfyNotifier{
			Topic:  topic,
			Server: getEnvOrDefault("NOTIFIER_NTFY_SERVER", "https://ntfy.sh"),
		})
		log.Infof("%s Ntfy.sh notifier enabled", logcolors.LogNotify)
	}

	return notifiers
}

// startAlerts wires the alert handler to the event bus.
func startAlerts() {
	handler := notifier.NewAlertHandler(notifier.AlertConfig{
		Notifiers: setupNotifiers(),
	})
	handler.Start()
}

// eventSink forwards scheduler notifications to the event bus and the
// stats counters.
type eventSink struct{}

func (eventSink) IndexChanged(index int, seq lyric.Sequence) {
	stats.Get().RecordIndexNotification()
	notifier.PublishActiveIndexChanged(getCurrentTrack().ID, index)
	if index >= 0 && index < len(seq) {
		log.Debugf("%s Line %d/%d: %s", logcolors.LogScheduler, index+1, len(seq), seq[index].Text)
	}
}

func (eventSink) Cleared() {
	notifier.PublishActiveIndexCleared(getCurrentTrack().ID)
}

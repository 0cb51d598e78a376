package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"lyricsync-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// Notifier interface for different notification methods
type Notifier interface {
	Send(subject, message string) error
}

// =============================================================================
// TELEGRAM NOTIFIER
// =============================================================================

type TelegramNotifier struct {
	BotToken string
	ChatID   string
}

func (t *TelegramNotifier) Send(subject, message string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.BotToken)

	fullMessage := fmt.Sprintf("*%s*\n\n%s", subject, message)

	payload := map[string]interface{}{
		"chat_id":    t.ChatID,
		"text":       fullMessage,
		"parse_mode": "Markdown",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal telegram payload: %v", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	log.Infof("%s Telegram notification sent to chat %s", logcolors.LogNotify, t.ChatID)
	return nil
}

// =============================================================================
// NTFY.SH NOTIFIER (Simple Push Notifications)
// =============================================================================

type NtfyNotifier struct {
	Topic  string // Your unique topic name
	Server string // Default: https://ntfy.sh
}

func (n *NtfyNotifier) Send(subject, message string) error {
	server := n.Server
	if server == "" {
		server = "https://ntfy.sh"
	}

	url := fmt.Sprintf("%s/%s", server, n.Topic)

	req, err := http.NewRequest("POST", url, bytes.NewBufferString(message))
	if err != nil {
		return fmt.Errorf("failed to create ntfy request: %v", err)
	}

	req.Header.Set("Title", subject)
	req.Header.Set("Priority", "high")
	req.Header.Set("Tags", "warning")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send ntfy notification: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}

	log.Infof("%s Ntfy notification sent to topic %s", logcolors.LogNotify, n.Topic)
	return nil
}

package www

import (
	"encoding/json"
	"log"
	"net/http"
)

type messagingSettings struct {
	Brokers     []string `json:"brokers"`
	EventsTopic string   `json:"events_topic"`
	Source      string   `json:"source"`
}

func (h *Handlers) messagingSnapshot() messagingSettings {
	cfg := h.engine.AppConfig()
	cfg.Lock()
	defer cfg.Unlock()
	return messagingSettings{
		Brokers:     append([]string(nil), cfg.Messaging.Kafka.Brokers...),
		EventsTopic: cfg.Messaging.EventsTopic,
		Source:      cfg.Messaging.Source,
	}
}

func (h *Handlers) apiGetSettings(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, map[string]any{"messaging": h.messagingSnapshot()})
}

// apiUpdateMessagingSettings applies new broker settings, persists them to the
// config file, and bounces the kafka client so the change takes effect
// without a restart. Empty fields leave the current value alone.
func (h *Handlers) apiUpdateMessagingSettings(w http.ResponseWriter, r *http.Request) {
	var req messagingSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}

	cfg := h.engine.AppConfig()
	cfg.Lock()
	if len(req.Brokers) > 0 {
		cfg.Messaging.Kafka.Brokers = req.Brokers
	}
	if req.EventsTopic != "" {
		cfg.Messaging.EventsTopic = req.EventsTopic
	}
	if req.Source != "" {
		cfg.Messaging.Source = req.Source
	}
	cfg.Unlock()

	saved := false
	if path := h.engine.ConfigPath(); path != "" {
		if err := cfg.Save(path); err != nil {
			log.Printf("www: save config: %v", err)
		} else {
			saved = true
		}
	}

	h.engine.ReconfigureMessaging()

	msgConnected := false
	if c := h.engine.MsgClient(); c != nil {
		msgConnected = c.IsConnected()
	}
	h.jsonOK(w, map[string]any{
		"saved":     saved,
		"connected": msgConnected,
		"messaging": h.messagingSnapshot(),
	})
}

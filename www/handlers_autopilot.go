package www

import (
	"net/http"
)

func (h *Handlers) apiAutopilotStart(w http.ResponseWriter, r *http.Request) {
	h.engine.StartAutopilot()
	h.jsonOK(w, h.engine.Controller().Status())
}

func (h *Handlers) apiAutopilotStop(w http.ResponseWriter, r *http.Request) {
	h.engine.StopAutopilot()
	h.jsonOK(w, h.engine.Controller().Status())
}

func (h *Handlers) apiAutopilotStatus(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.engine.Controller().Status())
}

func (h *Handlers) apiSystemStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.engine.Controller().SystemStatus()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, status)
}

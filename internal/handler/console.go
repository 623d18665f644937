package handler

import (
	"net/http"
)

// ConsoleRenderer renders the latest diagnostic payload as JSON
type ConsoleRenderer interface {
	Render() (string, error)
}

// ConsoleHandler serves the diagnostic console
type ConsoleHandler struct {
	console ConsoleRenderer
}

// NewConsoleHandler creates a new ConsoleHandler
func NewConsoleHandler(console ConsoleRenderer) *ConsoleHandler {
	return &ConsoleHandler{console: console}
}

// Latest handles GET /console
// @Summary      Diagnostic console
// @Description  Returns the payload of the last session operation
// @Tags         console
// @Produce      json
// @Success      200  {array}  object
// @Router       /console [get]
func (h *ConsoleHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	out, err := h.console.Render()
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternal, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(out))
}

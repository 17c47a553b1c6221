package handlers

import (
	"net/http"
	"strings"

	"studio/internal/watermark"
)

type healthResponse struct {
	Status  string `json:"status"`
	Env     string `json:"env,omitempty"`
	Codec   string `json:"codec"`
	Overlay string `json:"overlay"`
}

// Health reports liveness and whether the free-tier overlay is currently
// bypassed by the operator switch.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Codec:   strings.TrimSuffix(watermark.Marker, "|"),
		Overlay: "enforced",
	}
	key := watermark.BypassEnvKey
	if a.Config != nil {
		resp.Env = a.Config.AppEnv
		if a.Config.WatermarkBypassKey != "" {
			key = a.Config.WatermarkBypassKey
		}
	}
	if watermark.EnvBypass(key)() {
		resp.Overlay = "bypassed"
	}
	a.json(w, http.StatusOK, resp)
}

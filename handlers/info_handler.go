package handlers

import (
	"net/http"

	"github.com/keyfront/keyfront/utils"
)

// VersionResponse describes the running service
type VersionResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InfoHandler serves static service metadata
type InfoHandler struct {
	name    string
	version string
}

// NewInfoHandler creates a new InfoHandler
func NewInfoHandler(name, version string) *InfoHandler {
	return &InfoHandler{
		name:    name,
		version: version,
	}
}

// HandleVersion handles GET /api/v1/info/version
func (h *InfoHandler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, VersionResponse{
		Name:    h.name,
		Version: h.version,
	})
}

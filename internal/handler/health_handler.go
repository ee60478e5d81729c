package handler

import (
	"net/http"

	"github.com/hitoshi/jobtracker/internal/middleware"
)

type healthResponse struct {
	Status string `json:"status"`
}

// Health はプロセスの死活を返す。
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

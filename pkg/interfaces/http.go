package interfaces

import (
	"encoding/json"
	"net/http"
)

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// viewerID extracts the authenticated viewer from the request. Auth proper
// lives at the gateway; by the time a request reaches this service the
// header is trusted.
func viewerID(r *http.Request) string {
	return r.Header.Get("X-Viewer-ID")
}

package server

import (
	"encoding/json"
	"net/http"
	"net/url"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// redirectWithError sends the browser back to the app home with a coarse
// error kind for display. Raw provider detail never rides along.
func redirectWithError(w http.ResponseWriter, r *http.Request, kind string) {
	http.Redirect(w, r, "/?error="+url.QueryEscape(kind), http.StatusFound)
}

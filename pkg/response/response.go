package response

import (
	"encoding/json"
	"net/http"
)

// DetailBody is the flat error shape shared by every JSON endpoint.
type DetailBody struct {
	Detail string `json:"detail"`
}

// Raw writes v as the whole JSON body.
func Raw(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Detail writes {"detail": message}.
func Detail(w http.ResponseWriter, status int, message string) {
	Raw(w, status, DetailBody{Detail: message})
}

// NoContent writes a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

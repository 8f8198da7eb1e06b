package errors

import (
	"encoding/json"
	"net/http"
	"strings"
)

// errorResponse controla exactamente qué campos se envían al cliente.
// "error" es el reason code que el front reenvía en ?reason=.
type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe la respuesta JSON del error. La causa (Err) nunca se serializa.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	reason := appErr.Reason
	if reason == "" {
		reason = strings.ToLower(appErr.Code)
	}
	resp := errorResponse{
		Error:   reason,
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ValentinKolb/dRide/lib/ride/model"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusOf(kind model.ErrorKind) int {
	switch kind {
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindConflict:
		return http.StatusConflict
	case model.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Logger.Errorf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := model.KindOf(err)
	msg := err.Error()
	var e *model.Error
	if errors.As(err, &e) {
		msg = e.Msg
	}
	if kind == model.KindInternal {
		Logger.Errorf("%s %s failed: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, statusOf(kind), errorBody{Error: kind.String(), Message: msg})
}

// decode reads the json body into v, malformed bodies are validation errors
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	return decodeBody(w, r, v, false)
}

// decodeOptional is decode for requests where the body may be empty
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) error {
	return decodeBody(w, r, v, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		var e *model.Error
		if errors.As(err, &e) {
			return e
		}
		return model.Invalid("invalid request body: %v", err)
	}
	return nil
}

func requireID(id string) error {
	if id == "" {
		return model.Invalid("id must not be empty")
	}
	return nil
}

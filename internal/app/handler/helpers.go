// Package handler contains the HTTP handlers of the shortener: link creation,
// redirects, the health probe and the admin endpoints. Request bodies are
// decoded with decodeJSONBody, which maps malformed input to precise
// 400/413/415 answers; every error response is a JSON {"error": "..."} body.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/clickshort/internal/models"
)

// maxBodyBytes limits request bodies to 1MB.
const maxBodyBytes = 1 << 20

// malformedRequest represents an error with a malformed HTTP request.
type malformedRequest struct {
	status int
	msg    string
}

func (mr *malformedRequest) Error() string {
	return mr.msg
}

// decodeJSONBody decodes a single JSON object from the request body into dst.
// Unknown fields are ignored.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	ct := r.Header.Get("Content-Type")
	if ct != "" {
		mediaType := strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
		if mediaType != "application/json" {
			msg := "Content-Type header is not application/json"
			return &malformedRequest{status: http.StatusUnsupportedMediaType, msg: msg}
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			msg := fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset)
			return &malformedRequest{status: http.StatusBadRequest, msg: msg}

		case errors.Is(err, io.ErrUnexpectedEOF):
			msg := "Request body contains badly-formed JSON"
			return &malformedRequest{status: http.StatusBadRequest, msg: msg}

		case errors.As(err, &unmarshalTypeError):
			msg := fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset)
			return &malformedRequest{status: http.StatusBadRequest, msg: msg}

		case errors.Is(err, io.EOF):
			msg := "Request body must not be empty"
			return &malformedRequest{status: http.StatusBadRequest, msg: msg}

		case errors.As(err, &maxBytesError):
			msg := "Request body must not be larger than 1MB"
			return &malformedRequest{status: http.StatusRequestEntityTooLarge, msg: msg}

		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		msg := "Request body must only contain a single JSON object"
		return &malformedRequest{status: http.StatusBadRequest, msg: msg}
	}

	return nil
}

// writeDecodeError answers a failed decodeJSONBody.
func writeDecodeError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var mr *malformedRequest
	if errors.As(err, &mr) {
		WriteError(w, mr.status, mr.msg)
		return
	}

	logger.Error("cannot read request body", zap.Error(err))
	WriteError(w, http.StatusInternalServerError, "Server error")
}

// WriteJSON answers with v encoded as JSON.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already sent; an encoding failure here means the
	// client went away.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError answers with a JSON {"error": msg} body. Middleware and the
// router fallbacks use it too.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, models.ErrorResponse{Error: msg})
}

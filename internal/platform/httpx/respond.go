// Package httpx carries the JSON conventions shared by every handler:
// plain payloads for single documents, an items/total envelope for
// collections, RFC7807 problem documents for failures.
package httpx

import (
	"encoding/json"
	"io"
	"net/http"
)

// ProblemDetail is an RFC7807 problem document.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type collection struct {
	Items any `json:"items"`
	Total int `json:"total"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK sends a document with status 200.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created sends a newly persisted document with status 201.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Collection sends a list endpoint's items/total envelope.
func Collection(w http.ResponseWriter, items any, total int) {
	JSON(w, http.StatusOK, collection{Items: items, Total: total})
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// BadJSON reports an unreadable request body.
func BadJSON(w http.ResponseWriter) {
	Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
}

// DecodeJSON decodes a JSON request body into the target struct. Bodies are
// capped at 1 MiB; these are metadata documents, not uploads.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(target)
}

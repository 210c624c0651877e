// Package models defines the Unix socket wire format: line-delimited JSON
// requests and responses.
package models

import (
	"encoding/json"
	"net"
)

type Request struct {
	ID     int            `json:"id"`
	Method string         `json:"method"`
	Params map[string]any `json:"params,omitempty"`
}

type Response[T any] struct {
	ID     int    `json:"id"`
	Result *T     `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func Respond[T any](conn net.Conn, id int, result T) {
	data, err := json.Marshal(Response[T]{ID: id, Result: &result})
	if err != nil {
		RespondError(conn, id, "failed to encode response")
		return
	}
	conn.Write(append(data, '\n'))
}

func RespondError(conn net.Conn, id int, message string) {
	data, _ := json.Marshal(Response[any]{ID: id, Error: message})
	conn.Write(append(data, '\n'))
}

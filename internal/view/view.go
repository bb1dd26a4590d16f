// Package view holds the JSON envelopes returned by the HTTP API.
package view

type Response[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// PageResponse is one page of a list query.
type PageResponse[T any] struct {
	Data  []T `json:"data"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse never carries internal error detail.
type ErrorResponse struct {
	Error string `json:"error"`
}

func CreateResponse[T any](data T, message string) Response[T] {
	return Response[T]{Data: data, Message: message}
}

func CreatePageResponse[T any](data []T, page, limit int) PageResponse[T] {
	if data == nil {
		data = []T{}
	}
	return PageResponse[T]{Data: data, Page: page, Limit: limit}
}

func CreateError(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}

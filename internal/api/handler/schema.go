package handler

import "github.com/stockroom/storefront/internal/core/domain"

type authResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type itemResponse struct {
	Item *domain.Item `json:"item"`
}

type itemsResponse struct {
	Items []domain.Item `json:"items"`
}

type purchaseResponse struct {
	Message string       `json:"message"`
	Item    *domain.Item `json:"item"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// errorEnvelope documents the error body rendered by the central handler.
type errorEnvelope struct {
	Error string `json:"error" example:"Item not found"`
	Code  string `json:"code"  example:"NOT_FOUND"`
}

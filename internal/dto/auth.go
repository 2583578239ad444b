package dto

import "github.com/matrific/matrific-web/internal/models"

// LoginRequest holds the credentials posted to /login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	// Next is where the browser wanted to go before being sent to login.
	Next string `json:"next"`
}

// MenuResponse is the signed-in user with the navigation they may see.
type MenuResponse struct {
	User  *models.User `json:"user"`
	Items []MenuItem   `json:"items"`
}

// MenuItem mirrors navigation.Item for the wire.
type MenuItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

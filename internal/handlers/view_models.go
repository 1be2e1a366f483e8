package handlers

import "nauczsie/internal/models"

type HomeViewData struct {
	Title      string
	User       *models.User
	IsLoggedIn bool
	CSRFToken  string
	Providers  []string
	LoginError string
}

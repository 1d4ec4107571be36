package handler

import "yamdb/internal/microservices/http-api/service"

type GenreHandler struct {
	catalogHandler
}

func NewGenreHandler(svc service.GenreService) *GenreHandler {
	return &GenreHandler{catalogHandler{svc: svc}}
}

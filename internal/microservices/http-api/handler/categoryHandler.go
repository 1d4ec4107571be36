package handler

import "yamdb/internal/microservices/http-api/service"

type CategoryHandler struct {
	catalogHandler
}

func NewCategoryHandler(svc service.CategoryService) *CategoryHandler {
	return &CategoryHandler{catalogHandler{svc: svc}}
}

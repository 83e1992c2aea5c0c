package api

type Handler struct{}

package api

type fixture struct{}

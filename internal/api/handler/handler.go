package handler

import (
	"github.com/quillfeed/quillfeed/internal/service"
	"github.com/quillfeed/quillfeed/internal/stream"
)

// Handler bundles the services the HTTP surface fronts.
type Handler struct {
	relService    service.RelationshipService
	statusService *service.StatusService
	userService   *service.UserService
	streams       *stream.Set
	jwtSecret     string
}

func New(relService service.RelationshipService, statusService *service.StatusService, userService *service.UserService, streams *stream.Set, jwtSecret string) *Handler {
	return &Handler{
		relService:    relService,
		statusService: statusService,
		userService:   userService,
		streams:       streams,
		jwtSecret:     jwtSecret,
	}
}

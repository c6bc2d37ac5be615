package router

import (
	"github.com/matchapp/user-service/internal/container"
	handlers "github.com/matchapp/user-service/internal/interface/http"
	"github.com/matchapp/user-service/internal/router/modules"
)

// InitModules registers every feature module with the router registry.
// Called once during startup, after the container is built.
func InitModules(r *Registry, c *container.Container) {
	userHandler := handlers.NewUserHandler(c.Mediator, c.GetUser, c.Logger)
	r.Add(modules.NewUserModule(userHandler, c.Config.HMACSecret))
}

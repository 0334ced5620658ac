package setup

import (
	"github.com/openkanban/kanband/internal/config"
	"github.com/openkanban/kanband/internal/handler"
	mw "github.com/openkanban/kanband/internal/middleware"
	"github.com/openkanban/kanband/internal/service"
	"github.com/openkanban/kanband/internal/storage/pg"
	"github.com/openkanban/kanband/internal/utils/email"
	"github.com/openkanban/kanband/internal/utils/jwt"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Storage        *pg.Storage
	Handler        *handler.Handler
	Jwt            jwt.JwtService
	AuthMiddleware *mw.Auth
	Scheduler      *service.ReminderScheduler
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	email := email.New(&cfg.Private.Email)
	jwt := jwt.New(cfg.JwtKey(), cfg.JwtTTL())

	auth := service.NewAuth(storage, email, jwt, cfg)
	board := service.NewBoard(storage, storage)
	cards := service.NewCards(storage, storage, storage, email)
	scheduler := service.NewReminderScheduler(storage, storage, email)

	h := handler.New(auth, board, cards, storage, cfg)

	return &Dependencies{
		Storage:        storage,
		Handler:        h,
		Jwt:            jwt,
		AuthMiddleware: mw.NewAuth(jwt),
		Scheduler:      scheduler,
	}, nil
}

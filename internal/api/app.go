package api

import (
	"github.com/skalola/3kathletez/internal"
	"github.com/skalola/3kathletez/internal/engine"
)

type App interface {
	Logger() internal.Logger
	Engine() *engine.Engine
}

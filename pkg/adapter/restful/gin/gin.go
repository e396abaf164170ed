package gin

import (
	"log/slog"

	ginlogger "github.com/FabienMht/ginslog/logger"
	ginrecovery "github.com/FabienMht/ginslog/recovery"
	"github.com/gin-gonic/gin"
)

type HandlerFunc = gin.HandlerFunc
type Engine = gin.Engine

func New(middlewares ...HandlerFunc) *Engine {
	e := gin.New()
	e.Use(middlewares...)
	return e
}

// Logger returns the structured request logging middleware, reporting
// through the default slog logger like the rest of the process logs.
func Logger() HandlerFunc {
	return ginlogger.New(slog.Default())
}

// Recovery returns the panic recovery middleware; recovered panics
// are reported through the default slog logger as well.
func Recovery() HandlerFunc {
	return ginrecovery.New(slog.Default())
}

package rigging

import (
	"github.com/slimloans/rigging/middleware"
)

// useDefaultMiddleware installs the base pipeline ahead of every mounted
// app. Response framing (HEAD bodies, Content-Length and Content-Type
// sniffing) is left to net/http.
func useDefaultMiddleware(e *Environment) error {
	n := e.Config().Normalizer

	e.Use(
		middleware.RequestLogger(e),
		middleware.Recoverer,
		middleware.MethodOverride,
		middleware.JSONBody,
		middleware.Normalizer(middleware.NormalizerOptions{
			StrictPath: n.StrictPath,
			StrictWWW:  n.StrictWWW,
			RequireWWW: n.RequireWWW,
		}),
	)

	return nil
}

package errors

import "net/http"

var (
	// ErrorGeneric generic error key no status
	ErrorGeneric = Error{Key: "ERROR.UNKNOWN"}

	ErrorFatal = Error{Key: "ERROR.FATAL"}

	ErrorMissConfigured = Error{Key: "ERROR.MISSCONFIGURED", Status: http.StatusInternalServerError}

	// ErrorArgument is returned when a registration call is missing a required argument
	ErrorArgument = Error{Key: "ERROR.ARGUMENT"}

	// ErrorUnknownEvent is returned when a hook is registered for an event
	// its owner never declared
	ErrorUnknownEvent = Error{Key: "ERROR.UNKNOWN_EVENT"}

	// ErrorNoServer - none of the candidate network servers are registered
	ErrorNoServer = Error{Key: "ERROR.NO_SERVER"}

	// ErrorShutdown - the listener could not be stopped cleanly
	ErrorShutdown = Error{Key: "ERROR.SHUTDOWN"}

	// ErrorMalformedBody - returns 400
	ErrorMalformedBody = Error{Key: "ERROR.MALFORMED_BODY", Status: http.StatusBadRequest}
)

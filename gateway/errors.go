package gateway

import "errors"

var (
	ErrInvalidPattern = errors.New("invalid route pattern")
	ErrDuplicateRoute = errors.New("duplicate route")
	ErrSealed         = errors.New("route table is sealed")

	ErrAuthNotConfigured = errors.New("protected route without auth gate")

	// Rejeições esperadas: viram respostas HTTP, nunca atravessam Dispatch como erro.
	ErrRateExceeded    = errors.New("client rate exceeded")
	ErrThrottled       = errors.New("client throttled")
	ErrRouteNotFound   = errors.New("route not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")

	// ErrTransport envolve falhas da conexão (ex: cliente desconectou no meio do dispatch).
	ErrTransport = errors.New("transport failure")
)

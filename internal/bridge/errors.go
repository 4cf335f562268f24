package bridge

import "errors"

// Taxonomía de errores del bridging. Todos son no-fatales para el request:
// el gatekeeper degrada a guest handling, nunca bloquea al usuario.
var (
	// ErrExchange: falla de transporte o remota durante el intercambio de
	// token. Sin retry; el caller decide.
	ErrExchange = errors.New("bridge: token exchange failed")

	// ErrVerification: assertion malformada, firma inválida, expirada o
	// algoritmo incorrecto. Todo colapsa acá.
	ErrVerification = errors.New("bridge: assertion verification failed")

	// ErrPayloadInvalid: el claim de email (el campo ancla) falta o está
	// vacío. Se loguea distinto del resto.
	ErrPayloadInvalid = errors.New("bridge: payload invalid")

	// ErrReconciliation: falla de lectura o escritura contra los índices o
	// el user store. Se propaga sin limpieza de estado parcial.
	ErrReconciliation = errors.New("bridge: reconciliation failed")
)

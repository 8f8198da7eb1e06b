package repository

import "errors"

// Errores que devuelven los stores (pg y memory). Los services los traducen
// a sus propios sentinels; nunca llegan crudos al handler.
var (
	// ErrNotFound: cuenta, membership o snapshot inexistente para el tenant.
	ErrNotFound = errors.New("repository: not found")

	// ErrConflict: violación de unicidad, p.ej. (tenant, platform, handle) ya registrado.
	ErrConflict = errors.New("repository: unique constraint")

	// ErrInvalidInput: el store rechazó los valores (check constraint, fecha inválida).
	ErrInvalidInput = errors.New("repository: invalid input")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

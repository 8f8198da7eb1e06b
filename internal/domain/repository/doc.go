// Package repository define las interfaces de repositorio de dominio.
//
// Las implementaciones concretas viven en internal/store/pg (PostgreSQL)
// e internal/store/memory (tests y modo local).
//
// Convenciones:
//   - El clientID (tenant) se pasa explícitamente en métodos scoped por cliente
//   - Context siempre es el primer parámetro
//   - Errores de dominio están en errors.go
package repository

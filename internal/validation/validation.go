// Package validation reúne las reglas de formato que comparten config,
// el flujo OAuth y el alta manual de cuentas.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Scopes de Meta: minúsculas, dígitos y "_" (ej: instagram_business_basic).
var scopeNameRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9_\.]{0,62}[a-z0-9])?$`)

// Reason codes que viajan en ?reason=. Cualquier otra cosa se descarta.
var reasonCodeRe = regexp.MustCompile(`^[a-z_]{1,64}$`)

// ValidScopeName reporta si name es un scope OAuth bien formado.
func ValidScopeName(name string) bool {
	return scopeNameRe.MatchString(name)
}

// ParseScopes separa una lista CSV de scopes, ignorando vacíos.
// Falla con el primer scope inválido.
func ParseScopes(csv string) ([]string, error) {
	var out []string
	for _, p := range strings.Split(csv, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !ValidScopeName(p) {
			return nil, fmt.Errorf("invalid scope %q", p)
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty scope list")
	}
	return out, nil
}

// ValidReasonCode reporta si s puede usarse como reason code en una URL.
func ValidReasonCode(s string) bool {
	return reasonCodeRe.MatchString(s)
}

// MaxLen reporta si s tiene a lo sumo n caracteres (runas, no bytes).
func MaxLen(s string, n int) bool {
	return utf8.RuneCountInString(s) <= n
}

// LenBetween reporta si s tiene entre min y max caracteres.
func LenBetween(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

// Package util contiene helpers chicos sin dependencias del dominio.
package util

import "strings"

// MaskEmail deja la primera letra del usuario y del dominio:
// "ops@brandkit.io" -> "o…@b….io". Sirve para loguear destinatarios.
func MaskEmail(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	at := strings.IndexByte(addr, '@')
	if at <= 0 {
		if len(addr) <= 3 {
			return strings.Repeat("*", len(addr))
		}
		return addr[:1] + "…"
	}
	local, domain := addr[:at], addr[at+1:]
	if len(local) > 1 {
		local = local[:1] + "…"
	}
	labels := strings.Split(domain, ".")
	if len(labels[0]) > 1 {
		labels[0] = labels[0][:1] + "…"
	}
	return local + "@" + strings.Join(labels, ".")
}

// MaskEmails aplica MaskEmail a cada dirección.
func MaskEmails(addrs []string) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = MaskEmail(a)
	}
	return out
}

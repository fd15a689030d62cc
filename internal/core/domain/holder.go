package domain

import (
	"strings"
	"time"
)

// Holder is the owner of one or more accounts, identified by CPF.
type Holder struct {
	CPF       string    `json:"cpf"` // digits only
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeCPF strips every non-digit rune.
func NormalizeCPF(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCPF reports whether raw, once normalized, is an 11 digit CPF with
// matching check digits. Repeated-digit sequences are rejected.
func ValidCPF(raw string) bool {
	cpf := NormalizeCPF(raw)
	if len(cpf) != 11 || cpf == strings.Repeat(cpf[:1], 11) {
		return false
	}

	var d1, d2 int
	for i := 0; i < 9; i++ {
		d1 += int(cpf[i]-'0') * (i + 1)
		d2 += int(cpf[8-i]-'0') * (i + 1)
	}
	d1 = d1 % 11 % 10
	d2 = d2 % 11 % 10

	return int(cpf[9]-'0') == d1 && int(cpf[10]-'0') == d2
}

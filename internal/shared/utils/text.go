package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics bỏ dấu bằng cách tách tổ hợp (NFD), xoá các combining
// mark (Mn) rồi ghép lại (NFC): "Localização" => "Localizacao".
func RemoveDiacritics(input string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, input)
	if err != nil {
		return input
	}
	return out
}

// NormalizeToken đưa một header token về dạng so khớp được:
//
//	"  Qtd. Stock " => "qtd_stock"
//	"Código Barras" => "codigo_barras"
//	"PVP-1"         => "pvp_1"
//
// Khoảng trắng, '-', '.' và '_' gộp thành một '_'; ký tự khác bị bỏ.
func NormalizeToken(input string) string {
	s := RemoveDiacritics(strings.ToLower(strings.TrimSpace(input)))

	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '.' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// FoldName là key so khớp case-insensitive cho tên (category...).
// Giữ nguyên dấu để khớp với unique index LOWER(name) bên Postgres.
func FoldName(input string) string {
	return strings.ToLower(CollapseSpaces(input))
}

// CollapseSpaces trim và gộp các khoảng trắng liên tiếp thành một.
func CollapseSpaces(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

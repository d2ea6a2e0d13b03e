package validators

import "fmt"

// FormatCPF 12345678900 -> 123.456.789-00 (valeur inchangée si longueur inattendue)
func FormatCPF(value string) string {
	d := OnlyDigits(value)
	if len(d) != 11 {
		return value
	}
	return fmt.Sprintf("%s.%s.%s-%s", d[:3], d[3:6], d[6:9], d[9:])
}

// FormatCEP 01310100 -> 01310-100
func FormatCEP(value string) string {
	d := OnlyDigits(value)
	if len(d) != 8 {
		return value
	}
	return d[:5] + "-" + d[5:]
}

// FormatPhone (11) 98765-4321 pour un mobile, (11) 3456-7890 pour un fixe
func FormatPhone(value string) string {
	d := OnlyDigits(value)
	switch len(d) {
	case 11:
		return fmt.Sprintf("(%s) %s-%s", d[:2], d[2:7], d[7:])
	case 10:
		return fmt.Sprintf("(%s) %s-%s", d[:2], d[2:6], d[6:])
	default:
		return value
	}
}

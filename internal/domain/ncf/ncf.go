// Package ncf arma la representación canónica de un Número de Comprobante Fiscal.
//
// Un NCF es el código del tipo de comprobante seguido del número secuencial con
// ceros a la izquierda hasta completar Width caracteres (ej: "B01" + 1 -> "B0100000001").
package ncf

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Width longitud total del NCF (serie + tipo + secuencial de 8 dígitos).
const Width = 11

var upper = cases.Upper(language.Und)

// NormalizeCode limpia y pasa a mayúsculas el código del tipo de comprobante.
func NormalizeCode(code string) string {
	return upper.String(strings.TrimSpace(code))
}

// ValidateCode verifica que el código deje espacio para al menos un dígito.
func ValidateCode(code string) error {
	if code == "" {
		return fmt.Errorf("código vacío")
	}
	if len(code) >= Width {
		return fmt.Errorf("el código %q debe tener menos de %d caracteres", code, Width)
	}
	for _, r := range code {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return fmt.Errorf("el código %q solo admite letras A-Z y dígitos", code)
		}
	}
	return nil
}

// MaxNumber mayor secuencial representable para el código dado.
func MaxNumber(code string) int64 {
	digits := Width - len(code)
	if digits <= 0 {
		return 0
	}
	if digits > 18 {
		digits = 18
	}
	max := int64(1)
	for i := 0; i < digits; i++ {
		max *= 10
	}
	return max - 1
}

// Format devuelve el NCF de ancho fijo. Falla si el número no cabe o no es positivo.
func Format(code string, number int64) (string, error) {
	if err := ValidateCode(code); err != nil {
		return "", err
	}
	if number <= 0 {
		return "", fmt.Errorf("número %d fuera de rango", number)
	}
	if number > MaxNumber(code) {
		return "", fmt.Errorf("el número %d excede %d dígitos para el código %s", number, Width-len(code), code)
	}
	digits := strconv.FormatInt(number, 10)
	return code + strings.Repeat("0", Width-len(code)-len(digits)) + digits, nil
}

package admissions

import (
	"math"
	"strconv"
	"strings"

	"admissionsdash/pkg/contracts/domain"
)

// coerceFloat parses a decimal numeric cell. Anything unparseable is
// missing, including the hexadecimal forms strconv would accept.
func coerceFloat(cell string) domain.NullFloat {
	s := strings.TrimSpace(cell)
	if s == "" || isHexLiteral(s) {
		return domain.NullFloat{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return domain.NullFloat{}
	}
	return domain.Float(f)
}

func isHexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// coerceInt parses a numeric cell that must hold a whole number, such as
// "2023" or "2023.0". Fractional values are missing.
func coerceInt(cell string) domain.NullInt {
	f := coerceFloat(cell)
	if !f.Valid || f.Value != math.Trunc(f.Value) || math.Abs(f.Value) > math.MaxInt32 {
		return domain.NullInt{}
	}
	return domain.Int(int(f.Value))
}

// coerceText keeps the cell as is; an empty cell is missing.
func coerceText(cell string) domain.NullString {
	if cell == "" {
		return domain.NullString{}
	}
	return domain.Str(cell)
}

// Package validation содержит функции валидации входных данных.
package validation

import "unicode"

// mobilePrefixes содержит префиксы мобильных операторов Вьетнама.
var mobilePrefixes = map[string]struct{}{
	"032": {}, "033": {}, "034": {}, "035": {}, "036": {}, "037": {}, "038": {}, "039": {},
	"070": {}, "076": {}, "077": {}, "078": {}, "079": {},
	"081": {}, "082": {}, "083": {}, "084": {}, "085": {},
	"056": {}, "058": {}, "059": {},
	"086": {}, "096": {}, "097": {}, "098": {},
	"089": {}, "090": {}, "093": {},
	"088": {}, "091": {}, "094": {},
	"092": {}, "099": {},
}

// IsValidPhoneNumber проверяет, что номер состоит из 10 цифр и начинается с префикса мобильного оператора.
func IsValidPhoneNumber(number string) bool {
	if len(number) != 10 {
		return false
	}

	for _, ch := range number {
		if !unicode.IsDigit(ch) {
			return false
		}
	}

	_, ok := mobilePrefixes[number[:3]]
	return ok
}

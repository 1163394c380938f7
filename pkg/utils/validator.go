package utils

import (
	"errors"
	"fmt"
)

// validator.go - валидация данных
//
// Назначение:
// Проверка корректности входных данных API.
//
// Функции:
// - ValidateSymbol: проверка формата тикера (AAPL, BRK.B)
// - ValidatePositiveAmount: проверка денежной суммы (> 0)

// ValidateSymbol проверяет формат биржевого тикера.
//
// Допускаются 1-10 символов: латинские заглавные буквы, цифры и точка
// (классы акций вида BRK.B).
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return errors.New("symbol is empty")
	}
	if len(symbol) > 10 {
		return fmt.Errorf("symbol %q is too long", symbol)
	}
	for _, r := range symbol {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.':
		default:
			return fmt.Errorf("symbol %q contains invalid character %q", symbol, r)
		}
	}
	return nil
}

// ValidatePositiveAmount проверяет что сумма положительна
func ValidatePositiveAmount(name string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%s must be positive, got %v", name, amount)
	}
	return nil
}

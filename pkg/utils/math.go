package utils

import (
	"math"
)

// math.go - математические утилиты для риск-аналитики
//
// Назначение:
// Вспомогательные математические функции для расчёта риск-метрик.
// Все функции являются чистыми (pure functions) без побочных эффектов.
//
// Функции:
// - SafeDiv: деление с защитой от нулевого знаменателя
// - Percentage: доля в процентах от целого
// - Round2: округление до центов / сотых процента
// - Notional: номинальная стоимость позиции
// - Clamp: ограничение значения диапазоном

// SafeDiv делит a на b, возвращая fallback при нулевом знаменателе.
//
// Агрегации портфеля обязаны быть тотальными: пустой портфель или
// нулевой суммарный риск не должны приводить к панике или NaN.
//
// Примеры:
//   - SafeDiv(10, 4, 0) = 2.5
//   - SafeDiv(10, 0, 0) = 0
func SafeDiv(a, b, fallback float64) float64 {
	if b == 0 {
		return fallback
	}
	return a / b
}

// Percentage возвращает долю part от total в процентах.
//
// При нулевом total возвращает 0 (деление защищено).
//
// Примеры:
//   - Percentage(25, 100) = 25.0
//   - Percentage(1, 3) = 33.333...
//   - Percentage(5, 0) = 0
func Percentage(part, total float64) float64 {
	return SafeDiv(part, total, 0) * 100
}

// Round2 округляет до двух знаков после запятой.
//
// Используется для денежных сумм и процентов в отчётах.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// RoundN округляет до n знаков после запятой.
func RoundN(value float64, n int) float64 {
	pow := math.Pow(10, float64(n))
	return math.Round(value*pow) / pow
}

// Notional возвращает номинальную стоимость позиции в базовом активе.
//
// Параметры:
//   - price: цена базового актива
//   - quantity: количество (контрактов или акций)
//
// Возвращает:
//   - price × quantity, 0 при некорректных входах
func Notional(price float64, quantity int) float64 {
	if price < 0 || quantity < 0 {
		return 0
	}
	return price * float64(quantity)
}

// Abs возвращает абсолютное значение числа.
func Abs(x float64) float64 {
	return math.Abs(x)
}

// Min возвращает минимум из двух чисел.
func Min(a, b float64) float64 {
	return math.Min(a, b)
}

// Max возвращает максимум из двух чисел.
func Max(a, b float64) float64 {
	return math.Max(a, b)
}

// Clamp ограничивает значение диапазоном [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

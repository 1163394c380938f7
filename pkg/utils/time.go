package utils

import (
	"math"
	"time"
)

// time.go - утилиты для работы со временем
//
// Назначение:
// Вспомогательные функции для временных операций: дни до экспирации,
// торговые часы рынка, границы периодов для агрегации статистики.
//
// Функции:
// - DaysUntil: целые дни до даты (может быть отрицательным)
// - YearsUntil: доля года до даты (для опционных моделей)
// - IsMarketHours: открыт ли рынок акций США
// - GetDayStart/GetWeekStart/GetMonthStart: границы периодов

// ============================================================
// Дни и годы до экспирации
// ============================================================

// DaysUntil возвращает количество целых дней от from до target.
//
// Считается как floor разницы в сутках: совпадает с вычитанием дат.
// Для прошедших дат результат отрицательный, это штатное значение
// (просроченная позиция, не закрытая вовремя).
//
// Примеры:
//   - DaysUntil(2026-01-01, 2026-01-08) = 7
//   - DaysUntil(2026-01-08, 2026-01-01) = -7
func DaysUntil(from, target time.Time) int {
	return int(math.Floor(target.Sub(from).Hours() / 24))
}

// YearsUntil возвращает время до target в долях года (365 дней).
//
// Отрицательные и нулевые значения обрезаются до 0: для опционной
// модели истёкший контракт эквивалентен нулевому сроку.
func YearsUntil(from, target time.Time) float64 {
	years := target.Sub(from).Hours() / 24 / 365
	if years < 0 {
		return 0
	}
	return years
}

// ============================================================
// Торговые часы рынка акций США
// ============================================================

// IsMarketHours сообщает открыт ли рынок акций США в момент t.
//
// Приближение без календаря праздников: Пн-Пт, 9:30-16:00 ET.
// Используется планировщиком обновления котировок, поэтому ложное
// срабатывание в праздник безвредно (лишний запрос к брокеру).
func IsMarketHours(t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)

	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	minutes := t.Hour()*60 + t.Minute()
	return minutes >= 9*60+30 && minutes < 16*60
}

// ============================================================
// Границы периодов для агрегации статистики
// ============================================================

// GetDayStart возвращает начало текущего дня (00:00:00) в UTC
func GetDayStart() time.Time {
	return GetDayStartFrom(time.Now().UTC())
}

// GetDayStartFrom возвращает начало дня для указанного времени в UTC
func GetDayStartFrom(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// GetWeekStart возвращает начало текущей недели (понедельник 00:00:00) в UTC
//
// Неделя начинается с понедельника (ISO 8601)
func GetWeekStart() time.Time {
	return GetWeekStartFrom(time.Now().UTC())
}

// GetWeekStartFrom возвращает начало недели для указанного времени
func GetWeekStartFrom(t time.Time) time.Time {
	t = t.UTC()

	// 0=Sunday ... 6=Saturday -> ISO 8601 (1=Monday ... 7=Sunday)
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}

	monday := t.AddDate(0, 0, -(weekday - 1))
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
}

// GetMonthStart возвращает начало текущего месяца (1-е число 00:00:00) в UTC
func GetMonthStart() time.Time {
	return GetMonthStartFrom(time.Now().UTC())
}

// GetMonthStartFrom возвращает начало месяца для указанного времени
func GetMonthStartFrom(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ============================================================
// Парсинг дат API
// ============================================================

// DateLayout - формат дат в телах запросов (YYYY-MM-DD)
const DateLayout = "2006-01-02"

// ParseDate разбирает дату формата YYYY-MM-DD в UTC
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

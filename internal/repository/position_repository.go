package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"premiumtrader/internal/models"
)

// Ошибки репозитория позиций
var (
	ErrPositionNotFound = errors.New("position not found")
	ErrPositionExists   = errors.New("position already exists")
)

// PositionRepository - работа с таблицей positions
type PositionRepository struct {
	db *sql.DB
}

// NewPositionRepository создает новый экземпляр репозитория
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

const positionColumns = `id, symbol, strategy, quantity, entry_price, entry_date, expiration_date, strike_price, premium_received, status, close_price, close_date, profit_loss, notes, sector, created_at, updated_at`

// Create сохраняет новую позицию
func (r *PositionRepository) Create(position *models.Position) error {
	query := `
		INSERT INTO positions (id, symbol, strategy, quantity, entry_price, entry_date, expiration_date, strike_price, premium_received, status, notes, sector, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	now := time.Now()
	position.CreatedAt = now
	position.UpdatedAt = now

	if position.Status == "" {
		position.Status = models.PositionStatusOpen
	}

	_, err := r.db.Exec(
		query,
		position.ID,
		position.Symbol,
		position.Strategy,
		position.Quantity,
		position.EntryPrice,
		position.EntryDate,
		position.ExpirationDate,
		position.StrikePrice,
		position.PremiumReceived,
		position.Status,
		position.Notes,
		position.Sector,
		position.CreatedAt,
		position.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrPositionExists
		}
		return err
	}

	return nil
}

// GetByID возвращает позицию по ID
func (r *PositionRepository) GetByID(id string) (*models.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE id = $1`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetAll возвращает все позиции
func (r *PositionRepository) GetAll() ([]*models.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		ORDER BY entry_date DESC`

	return r.queryMany(query)
}

// GetByStatus возвращает позиции с указанным статусом
func (r *PositionRepository) GetByStatus(status string) ([]*models.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE status = $1
		ORDER BY entry_date DESC`

	return r.queryMany(query, status)
}

// GetOpen возвращает открытые позиции
func (r *PositionRepository) GetOpen() ([]*models.Position, error) {
	return r.GetByStatus(models.PositionStatusOpen)
}

// Update обновляет изменяемые поля позиции (заметки, сектор)
func (r *PositionRepository) Update(position *models.Position) error {
	query := `
		UPDATE positions
		SET notes = $1, sector = $2, updated_at = $3
		WHERE id = $4`

	position.UpdatedAt = time.Now()

	result, err := r.db.Exec(query, position.Notes, position.Sector, position.UpdatedAt, position.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPositionNotFound
	}

	return nil
}

// Close помечает позицию закрытой и фиксирует результат
func (r *PositionRepository) Close(id string, closePrice float64, closeDate time.Time, profitLoss float64) error {
	query := `
		UPDATE positions
		SET status = $1, close_price = $2, close_date = $3, profit_loss = $4, updated_at = $5
		WHERE id = $6 AND status = $7`

	result, err := r.db.Exec(query, models.PositionStatusClosed, closePrice, closeDate, profitLoss, time.Now(), id, models.PositionStatusOpen)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	// Либо позиции нет, либо она уже закрыта
	if rows == 0 {
		return ErrPositionNotFound
	}

	return nil
}

// Delete удаляет позицию
func (r *PositionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM positions WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPositionNotFound
	}

	return nil
}

// scanOne читает одну позицию из строки результата
func (r *PositionRepository) scanOne(row *sql.Row) (*models.Position, error) {
	position := &models.Position{}
	var sector sql.NullString

	err := row.Scan(
		&position.ID,
		&position.Symbol,
		&position.Strategy,
		&position.Quantity,
		&position.EntryPrice,
		&position.EntryDate,
		&position.ExpirationDate,
		&position.StrikePrice,
		&position.PremiumReceived,
		&position.Status,
		&position.ClosePrice,
		&position.CloseDate,
		&position.ProfitLoss,
		&position.Notes,
		&sector,
		&position.CreatedAt,
		&position.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}

	position.Sector = sector.String
	return position, nil
}

// queryMany выполняет запрос и читает все позиции
func (r *PositionRepository) queryMany(query string, args ...interface{}) ([]*models.Position, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		position := &models.Position{}
		var sector sql.NullString

		err := rows.Scan(
			&position.ID,
			&position.Symbol,
			&position.Strategy,
			&position.Quantity,
			&position.EntryPrice,
			&position.EntryDate,
			&position.ExpirationDate,
			&position.StrikePrice,
			&position.PremiumReceived,
			&position.Status,
			&position.ClosePrice,
			&position.CloseDate,
			&position.ProfitLoss,
			&position.Notes,
			&sector,
			&position.CreatedAt,
			&position.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		position.Sector = sector.String
		positions = append(positions, position)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return positions, nil
}

// isUniqueViolation определяет нарушение уникальности по тексту ошибки
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

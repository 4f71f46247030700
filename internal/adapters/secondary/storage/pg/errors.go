package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// IsUniqueViolation проверяет, что ошибка - нарушение уникальности (23505).
// Уникальный индекс служит финальным арбитром гонок get-or-create
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// classifyStorageError помечает отказ движка или пула как
// domain.ErrStorageUnavailable. Ответ сервера (*pgconn.PgError - сервер
// доступен и ответил), пустая выборка и отмена контекста проходят
// без изменений
func classifyStorageError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.Is(err, sql.ErrNoRows) || errors.As(err, &pgErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
}

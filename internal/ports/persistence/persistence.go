package persistence

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Querier общий набор запросов: реализуется и пулом соединений, и транзакцией.
// Репозитории принимают Querier явным параметром, поэтому один и тот же метод
// работает как сам по себе, так и внутри чужой транзакции
type Querier interface {
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Exec(ctx context.Context, query string, args ...interface{}) error
	ExecWithResult(ctx context.Context, query string, args ...interface{}) (int64, error)
	NamedExec(ctx context.Context, query string, arg interface{}) error
	QueryRow(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

// Transaction открытая транзакция. Commit/Rollback принадлежат тому,
// кто её открыл
type Transaction interface {
	Querier
	Commit() error
	Rollback() error
}

// Persistence подключение к хранилищу: запросы вне транзакции плюс
// открытие транзакций
type Persistence interface {
	Querier
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// txBeginner минимальный интерфейс для открытия транзакции внутри Scoped
type txBeginner interface {
	BeginTx(ctx context.Context) (Transaction, error)
}

// Scoped выполняет fn в границах одной единицы работы.
//
// Если q уже является открытой транзакцией, fn выполняется в ней,
// а commit/rollback остаются за внешним владельцем - так один метод
// сервиса может вызывать другой внутри общей транзакции.
//
// Иначе открывается новая транзакция: ошибка или паника из fn откатывают
// её на любом пути выхода, успех - коммитит
func Scoped(ctx context.Context, q Querier, fn func(ctx context.Context, q Querier) error) (err error) {
	if _, ok := q.(Transaction); ok {
		return fn(ctx, q)
	}

	beginner, ok := q.(txBeginner)
	if !ok {
		return fmt.Errorf("scoped: %T does not support transactions", q)
	}

	tx, err := beginner.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin scope: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scope: %w", err)
	}
	return nil
}

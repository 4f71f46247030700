package domain

import "time"

// UserFilter фильтры для админских выборок пользователей
type UserFilter string

const (
	FilterAll     UserFilter = "all"
	FilterPremium UserFilter = "premium"
	FilterFree    UserFilter = "free"
	FilterActive  UserFilter = "active" // активность за последние 7 дней
)

// IsValid проверяет, что фильтр поддерживается
func (f UserFilter) IsValid() bool {
	switch f {
	case FilterAll, FilterPremium, FilterFree, FilterActive:
		return true
	}
	return false
}

// BroadcastFilter критерии отбора получателей рассылки.
// Выборка конечна и воспроизводима: повторный вызов с тем же фильтром
// выполняет тот же запрос заново
type BroadcastFilter struct {
	NotificationsOnly bool
	ActiveWithin      time.Duration // 0 - без ограничения по активности
}

// Statistics агрегированная статистика, считается в БД, не в памяти
type Statistics struct {
	TotalUsers        int64 `json:"total_users" db:"total_users"`
	NewUsersToday     int64 `json:"new_users_today" db:"new_users_today"`
	NewUsers7Days     int64 `json:"new_users_7_days" db:"new_users_7_days"`
	NewUsers30Days    int64 `json:"new_users_30_days" db:"new_users_30_days"`
	TotalCharts       int64 `json:"total_charts" db:"total_charts"`
	ActivePremium     int64 `json:"active_premium" db:"active_premium"`
	Predictions30Days int64 `json:"predictions_30_days" db:"predictions_30_days"`
}

// UserActivity счётчики по одному пользователю для админ-панели
type UserActivity struct {
	ChartsCount      int64     `json:"charts_count" db:"charts_count"`
	PredictionsCount int64     `json:"predictions_count" db:"predictions_count"`
	ReportsCount     int64     `json:"reports_count" db:"reports_count"`
	RegisteredAt     time.Time `json:"registered_at" db:"registered_at"`
}

// CleanupResult результат чистки устаревших данных
type CleanupResult struct {
	DeletedPredictions int64 `json:"deleted_predictions"`
	DeletedReports     int64 `json:"deleted_reports"`
}

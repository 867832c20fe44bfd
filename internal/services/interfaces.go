package services

import (
	"github.com/agamariel/cafetrack/internal/events"
	"github.com/agamariel/cafetrack/internal/models"
)

// SyncOp - вид записи в постоянное хранилище.
type SyncOp string

const (
	SyncUpsert SyncOp = "upsert"
	SyncDelete SyncOp = "delete"
	SyncBatch  SyncOp = "batch"
)

// SyncTask - отложенная запись изменений заказа. Orders содержит снимки
// на момент изменения; для удаления это удалённый заказ.
type SyncTask struct {
	Op     SyncOp
	Orders []*models.Order
	// Event публикуется после успешной записи; пустой тип - без события.
	Event events.Type
}

// Syncer принимает задачи записи и выполняет их асинхронно.
// Enqueue не блокирует и возвращает false, если задача не принята.
type Syncer interface {
	Enqueue(task SyncTask) bool
}

package models

// Status описывает этап жизненного цикла заказа.
type Status string

const (
	StatusQueue   Status = "queue"
	StatusPayment Status = "payment"
	StatusPrep    Status = "prep"
	StatusServed  Status = "served"
	StatusDone    Status = "done"
)

var statusLabels = map[Status]string{
	StatusQueue:   "Waiting to Order",
	StatusPayment: "Expected Payment",
	StatusPrep:    "Preparing",
	StatusServed:  "Served / Eating",
	StatusDone:    "Completed",
}

// Valid сообщает, известен ли статус.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label возвращает человекочитаемое название этапа.
func (s Status) Label() string {
	return statusLabels[s]
}

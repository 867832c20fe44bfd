package models

// Mark обозначает одну из временных отметок заказа.
type Mark int

const (
	MarkEntered Mark = iota
	MarkOrdered
	MarkPaid
	MarkDelivered
)

// Segment - слот агрегации, по которому ищется узкое место.
type Segment string

const (
	SegmentQueue   Segment = "Queue"
	SegmentPayment Segment = "Payment"
	SegmentPrep    Segment = "Prep"
)

// BottleneckOrder задаёт приоритет сегментов при равенстве средних.
var BottleneckOrder = []Segment{SegmentQueue, SegmentPayment, SegmentPrep}

// Span - участок жизни заказа между двумя отметками.
type Span struct {
	Segment Segment
	Key     string
	Label   string
	From    Mark
	To      Mark
}

// Step - переход из текущего статуса.
type Step struct {
	Next   Status
	Stamp  Mark
	Action string
}

// Route - маршрут класса категорий: путь статусов, переходы, сегменты аналитики.
// Движок переходов и аналитика читают одну и ту же таблицу.
type Route struct {
	Class CategoryClass
	Path  []Status
	// Steps - таблица переходов (статус, класс) -> следующий статус и отметка.
	Steps map[Status]Step
	// Spans перечислены в порядке отображения полосы разбивки.
	Spans []Span
	Total Span
	// Progress - подписи трёх шагов индикатора прогресса.
	Progress []string
	// SidePayment - статус, в котором оплату можно отметить без перехода.
	// Пустой, если paidAt ставит только переход маршрута.
	SidePayment Status
}

var routes = map[CategoryClass]Route{
	ClassDineIn: {
		Class: ClassDineIn,
		Path:  []Status{StatusQueue, StatusPrep, StatusServed, StatusDone},
		Steps: map[Status]Step{
			StatusQueue:  {Next: StatusPrep, Stamp: MarkOrdered, Action: "Mark Ordered"},
			StatusPrep:   {Next: StatusServed, Stamp: MarkDelivered, Action: "Mark Served"},
			StatusServed: {Next: StatusDone, Stamp: MarkPaid, Action: "Mark Paid & Done"},
		},
		Spans: []Span{
			{Segment: SegmentQueue, Key: "queue", Label: "Queue", From: MarkEntered, To: MarkOrdered},
			{Segment: SegmentPrep, Key: "prep", Label: "Prep/Serve", From: MarkOrdered, To: MarkDelivered},
			{Segment: SegmentPayment, Key: "payClose", Label: "Eat/Pay", From: MarkDelivered, To: MarkPaid},
		},
		Total:       Span{Key: "total", Label: "Total", From: MarkEntered, To: MarkPaid},
		Progress:    []string{"Queue", "Prep", "Served"},
		SidePayment: StatusServed,
	},
	ClassOther: {
		Class: ClassOther,
		Path:  []Status{StatusQueue, StatusPayment, StatusPrep, StatusDone},
		Steps: map[Status]Step{
			StatusQueue:   {Next: StatusPayment, Stamp: MarkOrdered, Action: "Mark Ordered"},
			StatusPayment: {Next: StatusPrep, Stamp: MarkPaid, Action: "Mark Paid"},
			StatusPrep:    {Next: StatusDone, Stamp: MarkDelivered, Action: "Mark Served & Done"},
		},
		Spans: []Span{
			{Segment: SegmentQueue, Key: "queue", Label: "Queue", From: MarkEntered, To: MarkOrdered},
			{Segment: SegmentPayment, Key: "payment", Label: "Pay", From: MarkOrdered, To: MarkPaid},
			{Segment: SegmentPrep, Key: "prep", Label: "Prep", From: MarkPaid, To: MarkDelivered},
		},
		Total:    Span{Key: "total", Label: "Total", From: MarkEntered, To: MarkDelivered},
		Progress: []string{"Queue", "Pay", "Prep"},
	},
}

// RouteFor возвращает маршрут для категории.
func RouteFor(c Category) Route {
	return routes[c.Class()]
}

// Step возвращает переход из статуса from. ok == false, если перехода нет.
func (r Route) Step(from Status) (Step, bool) {
	s, ok := r.Steps[from]
	return s, ok
}

// Contains сообщает, лежит ли статус на пути маршрута.
func (r Route) Contains(s Status) bool {
	return r.position(s) >= 0
}

// StepState - состояние шага индикатора прогресса.
type StepState string

const (
	StepPending   StepState = "pending"
	StepActive    StepState = "active"
	StepCompleted StepState = "completed"
)

// ProgressOf раскладывает текущий статус на состояния трёх шагов индикатора.
func (r Route) ProgressOf(s Status) []StepState {
	pos := r.position(s)
	states := make([]StepState, len(r.Progress))
	for i := range states {
		switch {
		case pos < 0 || i > pos:
			states[i] = StepPending
		case i == pos:
			states[i] = StepActive
		default:
			states[i] = StepCompleted
		}
	}
	return states
}

func (r Route) position(s Status) int {
	for i, p := range r.Path {
		if p == s {
			return i
		}
	}
	return -1
}

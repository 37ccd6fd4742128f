package restorations

import (
	"sync"

	"github.com/google/uuid"

	"restore-site/database"
)

// Event is pushed to a user's open video pages when one of their runs
// changes status.
type Event struct {
	RestorationID uint   `json:"restoration_id"`
	Status        Status `json:"status"`
}

type Queue struct {
	id uuid.UUID
	Ch chan Event
}

func newQueue() *Queue {
	return &Queue{
		id: uuid.Must(uuid.NewV7()),
		Ch: make(chan Event, 8),
	}
}

var listenersMu sync.Mutex
var listeners = map[uint][]*Queue{}

func Subscribe(userID uint) *Queue {
	listenersMu.Lock()
	defer listenersMu.Unlock()

	q := newQueue()
	listeners[userID] = append(listeners[userID], q)
	return q
}

func Unsubscribe(userID uint, q *Queue) {
	listenersMu.Lock()
	defer listenersMu.Unlock()

	qs, ok := listeners[userID]
	if !ok {
		return
	}
	newQs := []*Queue{}
	for _, oldQ := range qs {
		if oldQ != q {
			newQs = append(newQs, oldQ)
		}
	}
	listeners[userID] = newQs
}

func publish(restorationID uint, status Status) {
	var userID uint
	err := database.Get().Model(&Restoration{}).
		Select("user_id").
		Where("id = ?", restorationID).
		Scan(&userID).Error
	if err != nil {
		log.Errorln(err)
		return
	}

	listenersMu.Lock()
	defer listenersMu.Unlock()
	for _, q := range listeners[userID] {
		select {
		case q.Ch <- Event{RestorationID: restorationID, Status: status}:
		default: // slow subscriber, drop rather than block a transition
		}
	}
}

package service

import (
	"sync"

	"github.com/timera-ai/timera-api/model"
)

// JobUpdate is pushed to websocket watchers whenever a job changes status.
type JobUpdate struct {
	JobId        int    `json:"job_id"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	ResultUrl    string `json:"result_url,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type jobHub struct {
	mu          sync.RWMutex
	subscribers map[int]map[chan JobUpdate]struct{}
}

var hub = &jobHub{
	subscribers: make(map[int]map[chan JobUpdate]struct{}),
}

// SubscribeJobUpdates registers a watcher for one user's jobs. The returned
// cancel func must be called when the watcher goes away.
func SubscribeJobUpdates(userId int) (<-chan JobUpdate, func()) {
	ch := make(chan JobUpdate, 16)
	hub.mu.Lock()
	if hub.subscribers[userId] == nil {
		hub.subscribers[userId] = make(map[chan JobUpdate]struct{})
	}
	hub.subscribers[userId][ch] = struct{}{}
	hub.mu.Unlock()

	cancel := func() {
		hub.mu.Lock()
		if subs, ok := hub.subscribers[userId]; ok {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(hub.subscribers, userId)
			}
		}
		hub.mu.Unlock()
	}
	return ch, cancel
}

// publishJobUpdate fans a transition out to all watchers of the job's owner.
// Slow watchers are skipped rather than blocked on.
func publishJobUpdate(job *model.Job) {
	update := JobUpdate{
		JobId:        job.Id,
		Type:         job.Type,
		Status:       job.Status,
		ResultUrl:    job.ResultUrl,
		ErrorMessage: job.ErrorMessage,
	}
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	for ch := range hub.subscribers[job.UserId] {
		select {
		case ch <- update:
		default:
		}
	}
}

package mqtt

import "log"

// queuedMsg is a serialized MQTT message held while the broker is
// unreachable, for replay after reconnection.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// offlineQueue holds up to capacity messages in FIFO order, dropping the
// oldest once full. Not goroutine-safe; the caller synchronizes.
type offlineQueue struct {
	msgs     []queuedMsg
	capacity int
	dropped  bool // a message was lost since the last drain
}

func newOfflineQueue(capacity int) *offlineQueue {
	return &offlineQueue{capacity: capacity}
}

func (q *offlineQueue) add(msg queuedMsg) {
	if len(q.msgs) == q.capacity {
		if !q.dropped {
			log.Printf("mqtt: offline queue full (%d messages), dropping oldest", q.capacity)
			q.dropped = true
		}
		copy(q.msgs, q.msgs[1:])
		q.msgs[len(q.msgs)-1] = msg
		return
	}
	q.msgs = append(q.msgs, msg)
}

// drain returns the queued messages oldest-first and empties the queue.
func (q *offlineQueue) drain() []queuedMsg {
	if len(q.msgs) == 0 {
		return nil
	}
	out := q.msgs
	q.msgs = nil
	q.dropped = false
	return out
}

func (q *offlineQueue) size() int {
	return len(q.msgs)
}

package contracts

import "strings"

// EventStatus is the lifecycle of a prediction-market event.
type EventStatus int

const (
	EventOpen EventStatus = iota
	EventClosedYes
	EventClosedNo
	EventStopped
	EventExpired
	EventRejected
)

var eventStatusNames = [...]string{
	EventOpen:      "OPEN",
	EventClosedYes: "CLOSED_YES",
	EventClosedNo:  "CLOSED_NO",
	EventStopped:   "STOPPED",
	EventExpired:   "EXPIRED",
	EventRejected:  "REJECTED",
}

// StatusInvalid is shown for values outside the known range or of the wrong type.
const StatusInvalid = "INVALID"

func (s EventStatus) String() string {
	if s < 0 || int(s) >= len(eventStatusNames) {
		return StatusInvalid
	}
	return eventStatusNames[s]
}

// Event is one prediction-market event registered in the factory.
type Event struct {
	ID     string `json:"eventId"`
	Status string `json:"status"`
}

// EventsFromState collects every key containing "eventStatus". The event id
// is the third "__" segment of the key.
func EventsFromState(state State) []Event {
	events := []Event{}
	for _, e := range state {
		if !strings.Contains(e.Key, "eventStatus") {
			continue
		}
		parts := strings.Split(e.Key, "__")
		id := ""
		if len(parts) > 2 {
			id = parts[2]
		}
		status := StatusInvalid
		if v, ok := e.Int(); ok {
			status = EventStatus(v).String()
		}
		events = append(events, Event{ID: id, Status: status})
	}
	return events
}

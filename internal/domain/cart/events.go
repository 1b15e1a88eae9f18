package cart

import "time"

// CommittedEvent is emitted after the engine replaces its cart snapshot.
type CommittedEvent struct {
	Revision   uint64
	Operation  Operation
	ProductID  int
	Cart       Cart
	OccurredAt time.Time
}

func (CommittedEvent) EventName() string { return "cart.committed" }

func NewCommittedEvent(revision uint64, op Operation, productID int, c Cart) CommittedEvent {
	return CommittedEvent{
		Revision:   revision,
		Operation:  op,
		ProductID:  productID,
		Cart:       c,
		OccurredAt: time.Now().UTC(),
	}
}

// NoticeRaisedEvent is emitted once per failed operation. TraceID and SpanID
// are the hex ids of the operation span that raised it, empty when untraced.
type NoticeRaisedEvent struct {
	Notice     Notice
	Kind       FailureKind
	TraceID    string
	SpanID     string
	OccurredAt time.Time
}

func (NoticeRaisedEvent) EventName() string { return "cart.notice_raised" }

func NewNoticeRaisedEvent(n Notice, kind FailureKind) NoticeRaisedEvent {
	return NoticeRaisedEvent{
		Notice:     n,
		Kind:       kind,
		OccurredAt: time.Now().UTC(),
	}
}

package port

import "imagemate/internal/core/domain"

type EventNotifier interface {
	// Notify is called after every state transition of a conversion session. It must not call back into the
	// session synchronously.
	Notify(event domain.Event)
}

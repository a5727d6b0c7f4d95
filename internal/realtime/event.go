package realtime

import "time"

// Domain is the functional area an event belongs to. The channel a subscriber
// listens on is scoped by tenant and domain.
type Domain string

const (
	DomainOrders       Domain = "orders"
	DomainKitchen      Domain = "kitchen"
	DomainBar          Domain = "bar"
	DomainCash         Domain = "cash"
	DomainDelivery     Domain = "delivery"
	DomainReservations Domain = "reservations"
	DomainTables       Domain = "tables"
	DomainGlobal       Domain = "global"
)

var validDomains = map[Domain]struct{}{
	DomainOrders:       {},
	DomainKitchen:      {},
	DomainBar:          {},
	DomainCash:         {},
	DomainDelivery:     {},
	DomainReservations: {},
	DomainTables:       {},
	DomainGlobal:       {},
}

func (d Domain) Valid() bool {
	_, ok := validDomains[d]
	return ok
}

// Event is the envelope for a domain occurrence. Every event belongs to
// exactly one tenant and one domain; it is immutable after construction.
type Event struct {
	TenantID    int64
	Domain      Domain
	Type        string
	Payload     map[string]interface{}
	ActorUserID *int64
	EmittedAt   time.Time
}

// NewEvent constructs an event stamped at the moment the domain fact became
// true.
func NewEvent(tenantID int64, domain Domain, eventType string, payload map[string]interface{}) Event {
	return Event{
		TenantID:  tenantID,
		Domain:    domain,
		Type:      eventType,
		Payload:   payload,
		EmittedAt: time.Now().UTC(),
	}
}

// WithActor returns a copy of the event attributed to the acting user.
func (e Event) WithActor(userID int64) Event {
	e.ActorUserID = &userID
	return e
}

// wireEnvelope is the shape delivered to channel subscribers.
type wireEnvelope struct {
	Event     string                 `json:"event"`
	Data      map[string]interface{} `json:"data"`
	Timestamp string                 `json:"timestamp"`
	UserID    *int64                 `json:"user_id"`
}

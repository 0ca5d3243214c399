package catalog

// StockPolicy is the shared policy describing which order statuses count
// as reserving stock. Hoisted here so every call site nets availability
// against the same status set.
type StockPolicy struct {
	activeStatuses map[OrderStatus]struct{}
}

// DefaultStockPolicy returns the policy with the standard active booking
// statuses.
func DefaultStockPolicy() StockPolicy {
	return NewStockPolicy(
		OrderStatusConfirmedCOD,
		OrderStatusPaidProcessing,
		OrderStatusWaitingDeposit,
		OrderStatusDepositPaid,
		OrderStatusDelivering,
		OrderStatusWaitingPickup,
	)
}

// NewStockPolicy builds a policy from an explicit status allow-list.
func NewStockPolicy(statuses ...OrderStatus) StockPolicy {
	active := make(map[OrderStatus]struct{}, len(statuses))
	for _, s := range statuses {
		active[s] = struct{}{}
	}
	return StockPolicy{activeStatuses: active}
}

// Reserves reports whether bookings under status count against availability.
func (p StockPolicy) Reserves(status OrderStatus) bool {
	_, ok := p.activeStatuses[status]
	return ok
}

// StockCalculator nets inbound remaining quantities against actively
// booked outbound quantities. Pure and order-independent.
type StockCalculator struct {
	policy StockPolicy
}

// NewStockCalculator builds a calculator with the given policy.
func NewStockCalculator(policy StockPolicy) *StockCalculator {
	return &StockCalculator{policy: policy}
}

// Available returns the net available quantity and the actively booked
// quantity for a set of inbound and outbound lines. The net figure may be
// negative; clamping happens only at classification.
func (c *StockCalculator) Available(inbound []InboundLine, outbound []OutboundLine) (available, booked int) {
	for _, line := range inbound {
		available += line.Remaining
	}
	for _, line := range outbound {
		if !c.policy.Reserves(line.OrderStatus) {
			continue
		}
		booked += line.Booked
	}
	return available - booked, booked
}

// Classify maps an availability figure onto a stock status. alertLevel is
// an externally configured threshold; the default 0 means the low tier
// never triggers.
func (c *StockCalculator) Classify(available, alertLevel int) StockStatus {
	switch {
	case available <= 0:
		return StockStatusOut
	case available <= alertLevel:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

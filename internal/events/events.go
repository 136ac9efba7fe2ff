package events

// Giftcard event types written to the outbox.
const (
	EventCardActivated    = "card.activated"
	EventCardRedeemed     = "card.redeemed"
	EventInvoiceGenerated = "invoice.generated"
	EventInvoicePaid      = "invoice.paid"
	EventInvoiceCancelled = "invoice.cancelled"
)

// CardEventPayload captures the minimal data consumers need for card events.
type CardEventPayload struct {
	CardUID     string `json:"card_uid"`
	StoreID     string `json:"store_id"`
	AmountCents int64  `json:"amount_cents,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p CardEventPayload) ToMap() map[string]any {
	payload := map[string]any{
		"card_uid": p.CardUID,
		"store_id": p.StoreID,
	}
	if p.AmountCents != 0 {
		payload["amount_cents"] = p.AmountCents
	}
	return payload
}

// InvoiceEventPayload captures the minimal data consumers need for invoice events.
type InvoiceEventPayload struct {
	InvoiceID string `json:"invoice_id"`
	Number    string `json:"number"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p InvoiceEventPayload) ToMap() map[string]any {
	return map[string]any{
		"invoice_id": p.InvoiceID,
		"number":     p.Number,
	}
}

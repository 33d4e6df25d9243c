// internal/models/card.go
package models

// Card is a single entry in the card catalog.
type Card struct {
	Code  string `json:"code"`
	Title string `json:"title"`
	Image string `json:"image"`
}

// DrawnCard is a card as it leaves a deck, carrying the rule text for its code.
// Action is empty (and omitted on the wire) when the catalog has no rule for the code.
type DrawnCard struct {
	Card
	Action string `json:"action,omitempty"`
}

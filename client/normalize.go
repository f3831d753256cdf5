package client

import "encoding/json"

// Balance is the one internal shape every credit-bearing response is
// normalized into. Available may be negative when the server reported totals
// from different moments; CanAfford uses the raw value, DisplayAvailable
// clamps it.
type Balance struct {
	Credits          int `json:"credits"`
	HeldCredits      int `json:"held_credits"`
	AvailableCredits int `json:"available_credits"`
}

// DisplayAvailable clamps a negative available balance to zero. Use it for
// rendering only; affordability checks go through CanAfford so a transiently
// negative value still blocks submissions.
func (b Balance) DisplayAvailable() int {
	if b.AvailableCredits < 0 {
		return 0
	}
	return b.AvailableCredits
}

// CanAfford reports whether the last-known balance covers cost. It never
// consults the clamped display value.
func (b Balance) CanAfford(cost int) bool {
	return b.AvailableCredits >= cost
}

// balancePayload accepts every credit field spelling the API has shipped:
// top-level credits/held_credits/available_credits, a nested user object,
// and the legacy flat user_credits. Pointer fields distinguish "absent"
// from zero.
type balancePayload struct {
	Credits          *int `json:"credits"`
	HeldCredits      *int `json:"held_credits"`
	AvailableCredits *int `json:"available_credits"`
	UserCredits      *int `json:"user_credits"`
	TotalCredits     *int `json:"total_credits"`
	User             *struct {
		Credits          *int `json:"credits"`
		HeldCredits      *int `json:"held_credits"`
		AvailableCredits *int `json:"available_credits"`
	} `json:"user"`
}

// normalizeBalance extracts a Balance from raw response bytes. ok is false
// when no recognizable credit field is present, in which case the caller
// keeps its previous balance rather than zeroing it.
func normalizeBalance(raw json.RawMessage) (Balance, bool) {
	var p balancePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Balance{}, false
	}
	return p.balance()
}

func (p *balancePayload) balance() (Balance, bool) {
	credits, held, available := p.Credits, p.HeldCredits, p.AvailableCredits
	if credits == nil && p.User != nil {
		credits = p.User.Credits
		if held == nil {
			held = p.User.HeldCredits
		}
		if available == nil {
			available = p.User.AvailableCredits
		}
	}
	if credits == nil {
		credits = p.UserCredits
	}
	if credits == nil {
		credits = p.TotalCredits
	}
	if credits == nil {
		return Balance{}, false
	}

	b := Balance{Credits: *credits}
	if held != nil {
		b.HeldCredits = *held
	}
	if available != nil {
		b.AvailableCredits = *available
	} else {
		b.AvailableCredits = b.Credits - b.HeldCredits
	}
	return b, true
}

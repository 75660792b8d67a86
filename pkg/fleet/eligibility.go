package fleet

// Eligibility is the answer to "can this vehicle take a new delivery or
// return right now". When not eligible it carries the user-facing reason and
// the detail-page anchor the UI should scroll to.
type Eligibility struct {
	OK             bool   `json:"ok"`
	Message        string `json:"message"`
	RedirectAnchor string `json:"redirectAnchor"`
}

// HandoverEligibility classifies a vehicle status for handover purposes.
// Exactly three statuses are ineligible, each with its own message and anchor.
func HandoverEligibility(s Status) Eligibility {
	if handoverCapable(s) {
		return Eligibility{OK: true}
	}
	switch s {
	case StatusInWorkshop:
		return Eligibility{
			Message:        "المركبة في الورشة حالياً ولا يمكن تسليمها أو استلامها",
			RedirectAnchor: "#workshop-records",
		}
	case StatusAccident:
		return Eligibility{
			Message:        "المركبة مسجلة في حادث ولا يمكن إجراء عمليات التسليم أو الاستلام",
			RedirectAnchor: "#accident-records",
		}
	case StatusOutOfService:
		return Eligibility{
			Message:        "المركبة خارج الخدمة ولا يمكن إجراء أي عمليات عليها",
			RedirectAnchor: "#vehicle-info",
		}
	}
	return Eligibility{Message: "حالة المركبة غير معروفة", RedirectAnchor: "#vehicle-info"}
}

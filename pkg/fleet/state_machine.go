package fleet

// The state machine is the single authority over vehicle status. It is purely
// functional over the current status; persistence stays with the caller.

// TransitionResult is what the validator reports back for a candidate transition.
type TransitionResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Current Status `json:"currentStatus"`
}

// allowTransition is the directed graph of permitted status changes.
// rented/in_project are aliases of available here; they get the same row.
var allowTransition = map[Status][]Status{
	StatusAvailable:    {StatusInWorkshop, StatusAccident, StatusOutOfService, StatusDocumentUpdate},
	StatusRented:       {StatusInWorkshop, StatusAccident, StatusOutOfService, StatusDocumentUpdate},
	StatusInProject:    {StatusInWorkshop, StatusAccident, StatusOutOfService, StatusDocumentUpdate},
	StatusInWorkshop:   {StatusAvailable, StatusOutOfService},
	StatusAccident:     {StatusAvailable, StatusInWorkshop, StatusOutOfService},
	StatusOutOfService: {StatusAvailable},
}

// CanTransition reports whether current -> target is a permitted change.
func CanTransition(current, target Status) bool {
	if current == target {
		return false
	}
	for _, s := range allowTransition[current] {
		if s == target {
			return true
		}
	}
	return false
}

// ValidateTransition checks a candidate (current -> target) change and returns
// the rejection message the caller surfaces to the user.
func ValidateTransition(current, target Status) TransitionResult {
	if current == target {
		if current == StatusInWorkshop {
			return TransitionResult{false, "المركبة موجودة بالفعل في الورشة", current}
		}
		return TransitionResult{false, "المركبة في هذه الحالة بالفعل", current}
	}
	if CanTransition(current, target) {
		return TransitionResult{true, "", current}
	}
	switch {
	case current == StatusOutOfService:
		return TransitionResult{false, "المركبة خارج الخدمة ويجب إعادتها للخدمة أولاً", current}
	case current == StatusInWorkshop:
		return TransitionResult{false, "يجب استلام المركبة من الورشة أولاً", current}
	case current == StatusAccident:
		return TransitionResult{false, "المركبة مسجلة في حادث ويجب إغلاقه أولاً", current}
	}
	return TransitionResult{
		false,
		"لا يمكن تغيير حالة المركبة من " + StatusLabel(current) + " إلى " + StatusLabel(target),
		current,
	}
}

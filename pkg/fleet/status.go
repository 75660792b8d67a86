package fleet

// Status is the canonical lifecycle state of a vehicle.
type Status string

const (
	StatusAvailable    Status = "available"
	StatusRented       Status = "rented"
	StatusInProject    Status = "in_project"
	StatusInWorkshop   Status = "in_workshop"
	StatusAccident     Status = "accident"
	StatusOutOfService Status = "out_of_service"

	// StatusDocumentUpdate is a transient target, not a resting state: it
	// marks a document-edit pass on a vehicle that stays in service. Only
	// available-like vehicles accept it, and the writer restores the
	// previous status when the edit commits.
	StatusDocumentUpdate Status = "document_update"
)

// HandoverType distinguishes delivery (vehicle -> driver) from return (driver -> vehicle).
type HandoverType string

const (
	HandoverDelivery HandoverType = "delivery"
	HandoverReturn   HandoverType = "return"
)

// statusAliases maps every accepted inbound token (English and Arabic synonyms)
// to the canonical status. Normalization happens at the boundary so the state
// machine only ever sees canonical values.
var statusAliases = map[string]Status{
	"available":      StatusAvailable,
	"متاحة":          StatusAvailable,
	"متاح":           StatusAvailable,
	"rented":         StatusRented,
	"مؤجرة":          StatusRented,
	"in_project":     StatusInProject,
	"في المشروع":     StatusInProject,
	"in_workshop":    StatusInWorkshop,
	"في الورشة":      StatusInWorkshop,
	"accident":       StatusAccident,
	"حادث":           StatusAccident,
	"out_of_service": StatusOutOfService,
	"خارج الخدمة":    StatusOutOfService,
}

var handoverAliases = map[string]HandoverType{
	"delivery": HandoverDelivery,
	"تسليم":    HandoverDelivery,
	"return":   HandoverReturn,
	"استلام":   HandoverReturn,
}

// NormalizeStatus resolves an inbound token to its canonical status.
func NormalizeStatus(raw string) (Status, bool) {
	s, ok := statusAliases[raw]
	return s, ok
}

// NormalizeHandoverType resolves an inbound token to delivery/return.
func NormalizeHandoverType(raw string) (HandoverType, bool) {
	t, ok := handoverAliases[raw]
	return t, ok
}

// StatusLabel returns the Arabic display label for a canonical status.
func StatusLabel(s Status) string {
	switch s {
	case StatusAvailable:
		return "متاحة"
	case StatusRented:
		return "مؤجرة"
	case StatusInProject:
		return "في المشروع"
	case StatusInWorkshop:
		return "في الورشة"
	case StatusAccident:
		return "حادث"
	case StatusOutOfService:
		return "خارج الخدمة"
	}
	return string(s)
}

// handoverCapable reports whether a status behaves like "available" for
// handover purposes. rented and in_project are historical enum values that
// the lifecycle logic treats identically to available.
func handoverCapable(s Status) bool {
	return s == StatusAvailable || s == StatusRented || s == StatusInProject
}

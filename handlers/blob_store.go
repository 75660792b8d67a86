package handlers

// BlobStore is the opaque key-addressed storage for uploaded images, PDFs and
// signatures. Keys carry a UUID prefix so concurrent writers never collide;
// Put is idempotent on key.
type BlobStore interface {
	Put(bucket, key string, data []byte) (url string, err error)
	Get(bucket, key string) ([]byte, error)
	Delete(bucket, key string) bool
}

// Buckets in use. Paths are slash-joined under the store root.
const (
	BucketEmployees          = "employees"
	BucketVehicles           = "vehicles"
	BucketAccidents          = "accidents"
	BucketWorkshop           = "workshop"
	BucketWorkshopReceipts   = "workshop/receipts"
	BucketHandoverSignatures = "handovers/signatures"
	BucketHandoverDiagrams   = "handovers/diagrams"
	BucketLogos              = "logos"
	BucketAuthorizations     = "authorizations"
	BucketInspections        = "inspections"
	BucketSickLeaves         = "sick_leaves"
)

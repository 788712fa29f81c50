package store

// ReadStoreInterface defines the interface for read model storage
type ReadStoreInterface interface {
	Set(collection, id string, data any) error

	// Get returns the read model, whether it exists, and any storage error.
	Get(collection, id string) (any, bool, error)

	GetAll(collection string) ([]any, error)

	Delete(collection, id string) error

	// Update replaces a read model with the result of updateFn. It reports
	// false when the model does not exist.
	Update(collection, id string, updateFn func(current any) any) (bool, error)
}

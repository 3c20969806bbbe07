package repositories

// HypercheckDbRepository collects the Postgres implementations of the engine's
// data access. Narrow interfaces over it are declared usecase-side.
type HypercheckDbRepository struct{}

func NewHypercheckDbRepository() *HypercheckDbRepository {
	return &HypercheckDbRepository{}
}

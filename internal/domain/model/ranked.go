package model

// Ranked is the outcome of one search together with the snapshot and policy
// that produced it.
type Ranked struct {
	Policy         string
	CatalogVersion uint64
	Results        []Simulation
}

package browser

import "github.com/okian/simcat/internal/domain/model"

// catalogLoaded is sent when a catalog load finishes. seq ties the result to
// the load that produced it so superseded loads can be dropped.
type catalogLoaded struct {
	seq     int
	catalog model.Catalog
	err     error
}

// Package tile defines the coordinate space and access interfaces shared by
// every consumer of a pyramid's tiles: the builder that writes them, the
// provider that serves them back to a viewer, and the delivery-facing
// packagers (archive, catalog, xyz export) layered on top of a finished
// build.
package tile

// Addr identifies a single tile inside a pyramid: which zoom level, and
// which row/column of TILE x TILE squares within that level. Row 0, Col 0
// is the top-left tile; there is no y-flip.
type Addr struct {
	Level uint32
	Row   uint32
	Col   uint32
}

// Reader reads a single tile's raw ABGR8 pixel bytes.
type Reader interface {
	ReadTile(addr Addr) ([]byte, error)
}

// Location represents the absolute byte range of one tile's data inside a
// finalized level file or archive.
type Location struct {
	Offset uint64
	Length uint64
}

type LocationReader interface {
	ReadLocation(addr Addr) (Location, error)
}

type LocationVisitor interface {
	VisitLocations(visitor func(Addr, Location) error) error
}

// Visitor walks every tile a source can produce. Order is
// implementation-defined; callers that need locality should prefer a
// source that documents an ordering (e.g. the archive packager's
// Hilbert-clustered directory).
type Visitor interface {
	VisitTiles(visitor func(Addr, []byte) error) error
}

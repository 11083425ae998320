package tile

import (
	"errors"
	"iter"
)

var errVisitCancelled = errors.New("visit cancelled")

// IterTiles returns an iterator over all tiles a Visitor can produce.
// Iteration may panic on unrecoverable errors from the underlying visit.
func IterTiles(r Visitor) iter.Seq2[Addr, []byte] {
	return func(yield func(Addr, []byte) bool) {
		err := r.VisitTiles(func(addr Addr, tileData []byte) error {
			if !yield(addr, tileData) {
				return errVisitCancelled
			}
			return nil
		})
		if err != nil && err != errVisitCancelled {
			panic(err)
		}
	}
}

func IterLocations(r LocationVisitor) iter.Seq2[Addr, Location] {
	return func(yield func(Addr, Location) bool) {
		err := r.VisitLocations(func(addr Addr, location Location) error {
			if !yield(addr, location) {
				return errVisitCancelled
			}
			return nil
		})
		if err != nil && err != errVisitCancelled {
			panic(err)
		}
	}
}

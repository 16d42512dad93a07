package domain

// Indexer gives a unique index to a (day, start, room) combination of a session and vice versa
type Indexer interface {
	// Returns a unique index to a combination of placement attributes
	Index(day, start, room uint64) uint64
	// Returns the combination of placement attributes from a unique index
	Attributes(index uint64) (day, start, room uint64)
	// Number of distinct indices
	Size() uint64
}

func NewIndexer(days, starts, rooms uint64) Indexer {
	return &indexerImplementation{
		days:   days,
		starts: starts,
		rooms:  rooms,
	}
}

type indexerImplementation struct {
	days   uint64
	starts uint64
	rooms  uint64
}

func (indexer *indexerImplementation) Index(day, start, room uint64) uint64 {
	return start + indexer.starts*day + indexer.starts*indexer.days*room
}

func (indexer *indexerImplementation) Attributes(index uint64) (day, start, room uint64) {
	start = index % indexer.starts
	index = index / indexer.starts

	day = index % indexer.days
	index = index / indexer.days

	room = index % indexer.rooms

	return day, start, room
}

func (indexer *indexerImplementation) Size() uint64 {
	return indexer.days * indexer.starts * indexer.rooms
}

package pagination

import (
	"sort"
)

// Cursor values determine the order of a collection's items.
type Cursor[T any] interface {
	LessThan(T) bool
}

// Item is an element of a paginated collection.
type Item[C Cursor[C]] interface {
	Cursor() C
}

// Request describes the page a client asked for. At most one of First and Last is typically given.
type Request[C Cursor[C]] struct {
	// Only items after this cursor are returned.
	After *C

	// Only items before this cursor are returned.
	Before *C

	// If given, at most this many items from the start of the range are returned.
	First *int

	// If given, at most this many items from the end of the range are returned.
	Last *int
}

// PageInfo describes the position of a page within its collection.
type PageInfo[C Cursor[C]] struct {
	HasPreviousPage bool
	HasNextPage     bool
	StartCursor     *C
	EndCursor       *C
}

// Filter returns the items strictly between the given cursors, along with whether any items were
// excluded on either side.
func Filter[I Item[C], C Cursor[C]](items []I, after, before *C) (filtered []I, hadItemsBefore, hadItemsAfter bool) {
	for _, item := range items {
		c := item.Cursor()
		if before != nil && !c.LessThan(*before) {
			hadItemsAfter = true
			continue
		}
		if after != nil && !(*after).LessThan(c) {
			hadItemsBefore = true
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered, hadItemsBefore, hadItemsAfter
}

// Paginate returns the requested page of items, sorted by cursor. Items may be given in any order
// and may extend beyond the requested range; those beyond it only serve to determine whether there
// are previous or next pages.
func Paginate[I Item[C], C Cursor[C]](items []I, req Request[C]) ([]I, PageInfo[C]) {
	var info PageInfo[C]
	items, info.HasPreviousPage, info.HasNextPage = Filter(items, req.After, req.Before)

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Cursor().LessThan(items[j].Cursor())
	})

	if req.First != nil {
		if len(items) > *req.First {
			items = items[:*req.First]
			info.HasNextPage = true
		} else if req.Before == nil {
			info.HasNextPage = false
		}
	}

	if req.Last != nil {
		if len(items) > *req.Last {
			items = items[len(items)-*req.Last:]
			info.HasPreviousPage = true
		} else if req.After == nil {
			info.HasPreviousPage = false
		}
	}

	if len(items) > 0 {
		start := items[0].Cursor()
		info.StartCursor = &start
		end := items[len(items)-1].Cursor()
		info.EndCursor = &end
	}

	return items, info
}

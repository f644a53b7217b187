package bidstertest

import (
	"strconv"

	"github.com/bidster/bidster/internal/storage"
)

func itoa(n int) string { return strconv.Itoa(n) }

func storageListing(ownerID, categoryID int, title string, lat, lng *float64) storage.Listing {
	return storage.Listing{
		OwnerID:     ownerID,
		CategoryID:  categoryID,
		Title:       title,
		Description: "A " + title,
		StartingBid: 1,
		Latitude:    lat,
		Longitude:   lng,
	}
}

package utils

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/JamilPr1/Haraj/models"
)

// CSVHeader is the flat export column set.
var CSVHeader = []string{
	"listing_id", "title", "description", "price", "city", "location",
	"posted_time", "seller_name", "seller_url", "category",
	"url", "image_count", "tags", "first_seen", "last_seen",
}

// WriteCSV flattens the listing set into CSV rows on w.
// Returns the number of data rows written.
func WriteCSV(w io.Writer, listings []models.Listing) (int, error) {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(CSVHeader); err != nil {
		return 0, err
	}

	total := 0
	for _, l := range listings {
		row := []string{
			l.Fields[models.FieldListingID],
			l.Fields[models.FieldTitle],
			l.Fields[models.FieldDescription],
			l.Fields[models.FieldPrice],
			l.Fields[models.FieldCity],
			l.Fields[models.FieldLocation],
			l.Fields[models.FieldPostedTime],
			l.Fields[models.FieldSellerName],
			l.Fields[models.FieldSellerURL],
			l.Fields[models.FieldCategory],
			l.Fields[models.FieldURL],
			strconv.Itoa(len(l.Images)),
			strings.Join(l.Tags, ", "),
			l.FirstSeen.UTC().Format("2006-01-02T15:04:05Z"),
			l.LastSeen.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if err := cw.Write(row); err != nil {
			return total, err
		}
		total++
	}
	return total, cw.Error()
}

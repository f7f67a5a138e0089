package handler

import (
	"context"
	"net/http"

	"github.com/washline/api/internal/database"
)

// LaundryItemStore defines the database methods needed by the laundry item list.
// Satisfied by *database.Queries.
type LaundryItemStore interface {
	ListLaundryItems(ctx context.Context) ([]database.LaundryItem, error)
}

// ListLaundryItems returns the catalogue of item kinds orders are counted in.
func ListLaundryItems(store LaundryItemStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := store.ListLaundryItems(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

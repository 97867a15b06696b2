package units

import (
	"context"
	"fmt"
	"log"
	"os"
	"siena/db"
	"siena/models"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// ByID loads one unit from the catalog.
func ByID(ctx context.Context, unitID string) (*models.Unit, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var unit models.Unit
	if err := db.UnitsCollection.FindOne(ctx, bson.M{"id": unitID}).Decode(&unit); err != nil {
		return nil, fmt.Errorf("unit %s: %w", unitID, err)
	}
	return &unit, nil
}

// All lists the catalog.
func All(ctx context.Context) ([]models.Unit, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cur, err := db.UnitsCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var units []models.Unit
	if err := cur.All(ctx, &units); err != nil {
		return nil, err
	}
	return units, nil
}

// SeedDefaults inserts the house catalog when the collection is empty. The
// riad rooms share the riad's city-tax rule; the desert camp has none.
func SeedDefaults(ctx context.Context) {
	count, err := db.UnitsCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		log.Printf("units: seed check failed: %v", err)
		return
	}
	if count > 0 {
		return
	}

	cityTax := models.TaxConfig{Enabled: true, PerPersonPerNight: 2.5}
	now := time.Now().Unix()

	defaults := []models.Unit{
		{ID: "hidden-gem", Slug: "the-riad", Name: "Hidden Gem", Property: "The Riad",
			PriceEUR: "85", MaxGuests: 2, MaxNights: 14, Tax: cityTax,
			ICalURLs:     feedURLs("ICAL_HIDDEN_GEM"),
			ShortTagline: "Ground-floor room off the courtyard"},
		{ID: "tresor-cache", Slug: "the-riad", Name: "Trésor Caché", Property: "The Riad",
			PriceEUR: "95", MaxGuests: 2, MaxNights: 14, Tax: cityTax,
			ICalURLs:     feedURLs("ICAL_TRESOR_CACHE"),
			ShortTagline: "First-floor room with original tilework"},
		{ID: "jewel-box", Slug: "the-riad", Name: "Jewel Box", Property: "The Riad",
			PriceEUR: "100", MaxGuests: 3, MaxNights: 14, Tax: cityTax,
			ICalURLs:     feedURLs("ICAL_JEWEL_BOX"),
			ShortTagline: "Terrace-level room under the stars"},
		{ID: "the-kasbah", Slug: "the-kasbah", Name: "The Kasbah", Property: "The Kasbah",
			PriceEUR: "140", MaxGuests: 4, MaxNights: 21, Tax: cityTax,
			ICalURLs: feedURLs("ICAL_KASBAH")},
		{ID: "the-douaria", Slug: "the-douaria", Name: "The Douaria", Property: "The Douaria",
			PriceEUR: "120", MaxGuests: 4, MaxNights: 21, Tax: cityTax,
			ICalURLs: feedURLs("ICAL_DOUARIA")},
		{ID: "the-desert-camp", Slug: "the-desert-camp", Name: "The Desert Camp", Property: "The Desert Camp",
			PriceEUR: "160", MaxGuests: 6, MaxNights: 7,
			Tax:          models.TaxConfig{},
			ShortTagline: "Nomad tents at Erg Chebbi"},
	}

	docs := make([]interface{}, len(defaults))
	for i := range defaults {
		defaults[i].CreatedAt = now
		docs[i] = defaults[i]
	}
	if _, err := db.UnitsCollection.InsertMany(ctx, docs); err != nil {
		log.Printf("units: seeding catalog failed: %v", err)
		return
	}
	log.Printf("units: seeded %d catalog entries", len(defaults))
}

func feedURLs(envKey string) []string {
	if url := os.Getenv(envKey); url != "" {
		return []string{url}
	}
	return nil
}

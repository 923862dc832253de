package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"campus-perks/internal/config"
	pg "campus-perks/internal/infra/db/postgres"
)

// Seeds a couple of merchants and one offer of each pricing type for local
// testing of the redemption flow.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	var offers int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM offers;`).Scan(&offers); err != nil {
		log.Fatalf("count offers: %v", err)
	}
	if offers > 0 {
		fmt.Printf("%d offers already present. No changes.\n", offers)
		return
	}

	cafeID := uuid.NewString()
	gymID := uuid.NewString()
	for _, m := range []struct{ id, name string }{
		{cafeID, "Campus Cafe"},
		{gymID, "Uni Gym"},
	} {
		if _, err := pool.Exec(ctx, `INSERT INTO merchants (id, name) VALUES ($1,$2);`, m.id, m.name); err != nil {
			log.Fatalf("insert merchant %s: %v", m.name, err)
		}
	}

	seed := []struct {
		merchantID string
		title      string
		offerType  string
		pct        *string
		item       *string
		orig       *string
		bundle     *string
	}{
		{cafeID, "20% off any order", "percentage", ptr("20"), nil, nil, nil},
		{cafeID, "Buy one coffee, get one free", "bogo", nil, ptr("4.50"), nil, nil},
		{gymID, "Semester pass bundle", "bundle", nil, nil, ptr("100.00"), ptr("75.00")},
	}
	for _, s := range seed {
		_, err := pool.Exec(ctx, `
INSERT INTO offers (id, merchant_id, title, offer_type, percentage_value, item_price, original_price, bundle_price, is_active)
VALUES ($1,$2,$3,$4,$5::numeric,$6::numeric,$7::numeric,$8::numeric,TRUE);`,
			uuid.NewString(), s.merchantID, s.title, s.offerType, s.pct, s.item, s.orig, s.bundle)
		if err != nil {
			log.Fatalf("insert offer %q: %v", s.title, err)
		}
		fmt.Printf("seeded offer: %s (%s)\n", s.title, s.offerType)
	}
}

func ptr(s string) *string { return &s }

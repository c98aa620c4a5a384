package main

import (
	"log"
	"net/http"

	"medistock/m/internal/api"
	"medistock/m/internal/blob"
	"medistock/m/internal/config"
	"medistock/m/internal/seed"
	"medistock/m/internal/store"
)

func main() {
	cfg := config.Load()

	blobs, err := blob.OpenSQLite(cfg.BlobPath)
	if err != nil {
		log.Fatalf("failed to open blob store: %v", err)
	}
	defer blobs.Close()

	st, err := store.Open(blobs)
	if err != nil {
		log.Fatalf("failed to load store: %v", err)
	}

	if cfg.SeedCSV != "" {
		if sess := st.Current(); sess != nil {
			seed.LoadStock(st, sess, cfg.SeedCSV)
		} else {
			log.Printf("seed skipped: no persisted session to own the stock")
		}
	}

	handler := api.New(st, cfg.Secret)

	log.Printf("MediStock server starting on :%s", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

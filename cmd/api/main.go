package main

import (
	"log"
	"net/http"

	"chatquery/internal/api"
	"chatquery/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	h := api.NewServer(cfg)
	log.Printf("chatquery api listening on %s store=%q llm_providers=%q embed_providers=%q", cfg.APIAddr, cfg.StoreMode, cfg.LLMProviders, cfg.EmbedProviders)
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		log.Fatal(err)
	}
}

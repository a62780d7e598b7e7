// Package main provides a CLI tool for creating the schema and seeding the
// database with the starting catalog.
package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"sorvetao/internal/core/types"
	"sorvetao/internal/domain/catalogs/assortment"
	"sorvetao/internal/domain/catalogs/client"
	"sorvetao/internal/infrastructure/storage/postgres"
	"sorvetao/internal/infrastructure/storage/postgres/catalog_repo"
	"sorvetao/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}
	log.Info("schema applied")

	txManager := postgres.NewTxManager(pool)

	err = txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return seedCatalog(ctx, txManager.GetQuerier(ctx), assortment.SampleCategories(), log)
	})
	if err != nil {
		log.Fatalw("failed to seed catalog", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		err = txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			return seedClients(ctx, txManager.GetQuerier(ctx), demoClients(), log)
		})
		if err != nil {
			log.Fatalw("failed to seed demo clients", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedCatalog(ctx context.Context, q postgres.Querier, cats []*assortment.Category, log *logger.Logger) error {
	// refuse to write a catalog the server could not load
	if _, err := assortment.NewSnapshot(ctx, cats); err != nil {
		return err
	}

	products := 0
	for pos, c := range cats {
		err := catalog_repo.Upsert(ctx, q, "cat_categories", []string{"id"}, c,
			map[string]any{"position": pos})
		if err != nil {
			return err
		}

		for _, u := range c.SaleUnits {
			err := catalog_repo.Upsert(ctx, q, "cat_sale_units", []string{"category_id", "id"}, u,
				map[string]any{"category_id": c.ID})
			if err != nil {
				return err
			}
		}

		for ppos, p := range c.Products {
			err := catalog_repo.Upsert(ctx, q, "cat_products", []string{"id"}, p,
				map[string]any{"position": ppos, "active": true})
			if err != nil {
				return err
			}
			products++
		}
	}

	log.Infow("catalog seeded", "categories", len(cats), "products", products)
	return nil
}

func seedClients(ctx context.Context, q postgres.Querier, clients []*client.Client, log *logger.Logger) error {
	for _, c := range clients {
		if err := c.Validate(ctx); err != nil {
			return fmt.Errorf("client %s: %w", c.ID, err)
		}
		if err := catalog_repo.Upsert(ctx, q, "cat_clients", []string{"id"}, c, nil); err != nil {
			return err
		}
	}
	log.Infow("demo clients seeded", "count", len(clients))
	return nil
}

func demoClients() []*client.Client {
	strPtr := func(s string) *string { return &s }

	vila := client.NewClient("cli_vila", "Gelados da Vila Ltda.")
	vila.ContactPerson = strPtr("Mariana Souza")
	vila.Email = strPtr("compras@geladosdavila.com.br")
	vila.Document = strPtr("12.345.678/0001-90")
	vila.Address = "Rua das Flores, 1200 - Centro, São Paulo/SP"
	vila.DeliveryDays = "Seg a Sex"
	vila.DeliveryEnabled = true
	vila.DeliveryFee = types.MustMoney("18.00")
	vila.MinimumOrderForDelivery = types.MustMoney("100.00")

	paraiso := client.NewClient("cli_paraiso", "Sorvetes Paraíso Ltda")
	paraiso.Document = strPtr("98.765.432/0001-10")
	paraiso.Address = "Av. Brasil, 455 - Jardim América, Campinas/SP"

	acai := client.NewClient("cli_acai_power", "Açaí Power")
	acai.ContactPerson = strPtr("Rafael Lima")
	acai.Address = "Rua XV de Novembro, 88 - Centro, Santos/SP"
	acai.DeliveryDays = "Ter e Qui"
	acai.DeliveryEnabled = true
	acai.DeliveryFee = types.MustMoney("25.00")
	acai.MinimumOrderForDelivery = types.MustMoney("150.00")

	delicias := client.NewClient("cli_delicias", "Delícias Geladas ME")
	delicias.Address = "Rua Augusta, 2020 - Consolação, São Paulo/SP"
	delicias.Status = client.StatusInactive

	return []*client.Client{vila, paraiso, acai, delicias}
}

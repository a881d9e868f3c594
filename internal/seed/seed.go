package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/config"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var Module = fx.Module("seed",
	fx.Invoke(func(conn *gorm.DB, node *snowflake.Node, cfg config.Config, log *zap.Logger) error {
		if !cfg.SeedDemoCatalog {
			return nil
		}
		if cfg.IsProduction() {
			log.Warn("demo catalog seeding skipped in production")
			return nil
		}
		created, err := EnsureDemoCatalog(conn, node, cfg.LowStockThreshold)
		if err != nil {
			return err
		}
		log.Info("demo catalog ensured", zap.Int("created", created))
		return nil
	}),
)

type demoProduct struct {
	Slug       string
	Name       string
	Price      int64
	Stock      int64
	IsGiftCard bool
	Metadata   map[string]any
}

var demoCatalog = []demoProduct{
	{Slug: "kopi-gayo-arabika-250g", Name: "Kopi Gayo Arabika 250g", Price: 85_000, Stock: 40, Metadata: map[string]any{"origin": "Aceh"}},
	{Slug: "teh-melati-tubruk", Name: "Teh Melati Tubruk", Price: 18_000, Stock: 120},
	{Slug: "gula-aren-cair-500ml", Name: "Gula Aren Cair 500ml", Price: 32_000, Stock: 6},
	{Slug: "kue-lapis-legit", Name: "Kue Lapis Legit", Price: 250_000, Stock: 0, Metadata: map[string]any{"preorder": true}},
	{Slug: "voucher-100k", Name: "Voucher Belanja 100K", Price: 100_000, Stock: 1_000, IsGiftCard: true},
}

// EnsureDemoCatalog inserts the demo products whose slugs are not taken yet and
// reports how many were created.
func EnsureDemoCatalog(db *gorm.DB, node *snowflake.Node, lowStockThreshold int64) (int, error) {
	if db == nil {
		return 0, errors.New("seed database handle is required")
	}
	if node == nil {
		return 0, errors.New("seed id generator is required")
	}

	created := 0
	ctx := context.Background()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range demoCatalog {
			ok, err := ensureProductTx(ctx, tx, node, p, lowStockThreshold)
			if err != nil {
				return err
			}
			if ok {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func ensureProductTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, p demoProduct, lowStockThreshold int64) (bool, error) {
	var existing productdomain.Product
	err := tx.WithContext(ctx).Where("slug = ?", p.Slug).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	now := time.Now().UTC()
	product := productdomain.Product{
		ID:         node.Generate().Int64(),
		Slug:       p.Slug,
		Name:       p.Name,
		Price:      p.Price,
		Stock:      p.Stock,
		Status:     productdomain.StatusForStock(p.Stock, lowStockThreshold),
		IsGiftCard: p.IsGiftCard,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if len(p.Metadata) > 0 {
		product.Metadata = datatypes.JSONMap(p.Metadata)
	}
	if err := tx.WithContext(ctx).Create(&product).Error; err != nil {
		return false, err
	}
	return true, nil
}

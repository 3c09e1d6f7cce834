package product

import (
	"github.com/shopspring/decimal"

	"github.com/rowncoffee/rown-backend/pkg/db/models"
)

// fallbackCatalog is the demo menu served when the catalog store cannot be read.
var fallbackCatalog = []models.Product{
	{
		ID:          1,
		Name:        "Kopi Susu Gula Aren",
		Description: "Smooth coffee with rich brown sugar notes. Made from premium Arabica beans sourced from high-altitude farms in Central Java. Features notes of caramel, vanilla, and a subtle hint of spice.",
		Price:       decimal.NewFromInt(28000),
		ImageURL:    "/placeholder-coffee1.jpg",
		IsAvailable: true,
	},
	{
		ID:          2,
		Name:        "Americano",
		Description: "Strong and bold traditional espresso. A classic Italian preparation with a perfect balance of bitter and acidic flavors. Made from a double shot of espresso diluted with hot water.",
		Price:       decimal.NewFromInt(24000),
		ImageURL:    "/placeholder-coffee2.jpg",
		IsAvailable: true,
	},
	{
		ID:          3,
		Name:        "V60",
		Description: "Hand-drip with floral and fruity notes. Our baristas carefully prepare this using the pour-over method, allowing for maximum flavor extraction. Features bright acidity and complex flavor notes.",
		Price:       decimal.NewFromInt(32000),
		ImageURL:    "/placeholder-coffee3.jpg",
		IsAvailable: true,
	},
	{
		ID:          4,
		Name:        "Cold Brew",
		Description: "Smooth and refreshing cold-brewed coffee. Steamed for 18 hours in cold water for a less acidic and smoother taste. Served over ice with a rich, chocolatey finish.",
		Price:       decimal.NewFromInt(30000),
		ImageURL:    "/placeholder-coffee4.jpg",
		IsAvailable: true,
	},
	{
		ID:          5,
		Name:        "Cappuccino",
		Description: "Espresso with steamed milk foam. A perfect blend of strong espresso, velvety steamed milk, and a thick layer of microfoam. Dust with cinnamon for an extra touch.",
		Price:       decimal.NewFromInt(26000),
		ImageURL:    "/placeholder-coffee5.jpg",
		IsAvailable: true,
	},
	{
		ID:          6,
		Name:        "Latte",
		Description: "Creamy espresso with steamed milk. Made with a shot of espresso and steamed milk, finished with a small amount of foam. Perfect for those who prefer a milder coffee flavor.",
		Price:       decimal.NewFromInt(28000),
		ImageURL:    "/placeholder-coffee6.jpg",
		IsAvailable: false,
	},
}

// FallbackProducts returns the available entries of the demo menu.
func FallbackProducts() []models.Product {
	out := make([]models.Product, 0, len(fallbackCatalog))
	for _, p := range fallbackCatalog {
		if p.IsAvailable {
			out = append(out, p)
		}
	}
	return out
}

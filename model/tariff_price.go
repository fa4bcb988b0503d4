package model

import "time"

// TariffPrice is one row of the pricing table shown on the tariff screen.
// TariffIndex fixes the display order.
type TariffPrice struct {
	TariffKey     string    `json:"tariff_key" gorm:"primaryKey"`
	TariffIndex   int       `json:"tariff_index"`
	Title         string    `json:"title"`
	Price         string    `json:"price"`
	OriginalPrice string    `json:"original_price"`
	Description   *string   `json:"description"`
	UpdatedAt     time.Time `json:"updated_at"`
}

package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ncngteam/miniapp/model"
	. "github.com/ncngteam/miniapp/utils/log"
)

// GetTariffPrices returns the pricing table in display order.
func (h *Handler) GetTariffPrices(c *gin.Context) {
	var prices []*model.TariffPrice
	if err := h.DB.Order("tariff_index ASC").Find(&prices).Error; err != nil {
		serverError(c, "Failed to fetch tariff prices", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"prices": prices})
}

type tariffPriceInput struct {
	TariffKey     string  `json:"tariff_key"`
	TariffIndex   int     `json:"tariff_index"`
	Title         string  `json:"title"`
	Price         string  `json:"price"`
	OriginalPrice string  `json:"original_price"`
	Description   *string `json:"description"`
}

type updateTariffPricesRequest struct {
	Prices []tariffPriceInput `json:"prices"`
}

// UpdateTariffPrices replaces the editable fields of every submitted tariff
// row, all-or-nothing.
func (h *Handler) UpdateTariffPrices(c *gin.Context) {
	var req updateTariffPricesRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Prices == nil {
		badRequest(c, "Prices array is required")
		return
	}

	for _, price := range req.Prices {
		if price.TariffKey == "" || price.Title == "" || price.Price == "" || price.OriginalPrice == "" {
			badRequest(c, "Each price must have tariff_key, title, price, and original_price")
			return
		}
		if price.TariffIndex < 0 {
			badRequest(c, "tariff_index must be a non-negative number")
			return
		}
	}

	now := time.Now().UTC()
	updated := make([]*model.TariffPrice, 0, len(req.Prices))

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		for _, price := range req.Prices {
			res := tx.Model(&model.TariffPrice{}).Where("tariff_key = ?", price.TariffKey).
				Updates(map[string]interface{}{
					"title":          price.Title,
					"price":          price.Price,
					"original_price": price.OriginalPrice,
					"description":    price.Description,
					"updated_at":     now,
				})
			if res.Error != nil {
				return res.Error
			}

			var row model.TariffPrice
			if err := tx.Where("tariff_key = ?", price.TariffKey).First(&row).Error; err != nil {
				return err
			}
			updated = append(updated, &row)
		}
		return nil
	})
	if err != nil {
		serverError(c, "Failed to update tariff price", err)
		return
	}

	Log.Info("tariff prices updated: ", len(updated))
	c.JSON(http.StatusOK, gin.H{"message": "Tariff prices updated successfully", "prices": updated})
}

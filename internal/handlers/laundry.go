package handlers

import (
	"net/http"

	"closetry/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

func handleLaundry(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sqlx.DB)
	user := c.MustGet("user")

	entries, err := database.GetLaundryItems(db, userID)
	if err != nil {
		renderError(c, err, "Failed to load laundry")
		return
	}

	c.HTML(http.StatusOK, "laundry.html", gin.H{
		"Title":     "Laundry - Closetry",
		"User":      user,
		"CSRFToken": newCSRFToken(c),
		"Entries":   entries,
	})
}

func handleMoveToLaundry(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sqlx.DB)

	itemID, ok := paramID(c)
	if !ok {
		renderError(c, database.ErrNotFound, "Invalid item ID")
		return
	}

	if err := database.MoveToLaundry(db, userID, itemID); err != nil {
		renderError(c, err, "Failed to move item to laundry")
		return
	}

	c.Redirect(http.StatusFound, "/wardrobe")
}

// handleRestoreFromLaundry is a no-op for items that are not in the laundry.
func handleRestoreFromLaundry(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sqlx.DB)

	itemID, ok := paramID(c)
	if !ok {
		renderError(c, database.ErrNotFound, "Invalid item ID")
		return
	}

	if _, err := database.RestoreFromLaundry(db, userID, itemID); err != nil {
		renderError(c, err, "Failed to restore item")
		return
	}

	c.Redirect(http.StatusFound, "/laundry")
}

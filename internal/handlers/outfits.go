package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"closetry/internal/database"
	"closetry/internal/logger"
	"closetry/internal/models"
	"closetry/internal/outfit"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

func renderAuto(c *gin.Context, status int, data gin.H) {
	db := c.MustGet("db").(*sqlx.DB)

	seasons, styles, err := tagOptions(db)
	if err != nil {
		renderError(c, err, "Failed to load outfit form")
		return
	}

	page := gin.H{
		"Title":     "Auto Outfit - Closetry",
		"User":      c.MustGet("user"),
		"CSRFToken": newCSRFToken(c),
		"Seasons":   seasons,
		"Styles":    styles,
	}
	for k, v := range data {
		page[k] = v
	}

	c.HTML(status, "auto.html", page)
}

func handleAutoPage(c *gin.Context) {
	renderAuto(c, http.StatusOK, gin.H{"Filter": models.ItemFilter{}})
}

// handleGenerateOutfit draws a new outfit. An empty category is a normal
// outcome and renders the "no suggestion" state.
func handleGenerateOutfit(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	generator := c.MustGet("outfit_generator").(*outfit.Generator)

	filter, err := parseFilter(c.PostForm("season_id"), c.PostForm("style_id"))
	if err != nil {
		renderAuto(c, http.StatusBadRequest, gin.H{
			"Filter": models.ItemFilter{},
			"Error":  "Please choose a valid season and style",
		})
		return
	}

	chosen, suggestion, err := generator.Generate(userID, filter)
	if err != nil {
		if errors.Is(err, outfit.ErrInsufficientItems) {
			renderAuto(c, http.StatusOK, gin.H{
				"Filter":       filter,
				"NoSuggestion": true,
			})
			return
		}
		renderError(c, err, "Failed to generate outfit")
		return
	}

	renderAuto(c, http.StatusOK, gin.H{
		"Filter":       filter,
		"Outfit":       chosen,
		"SuggestionID": suggestion.ID,
	})
}

func handleOutfits(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sqlx.DB)
	user := c.MustGet("user")

	outfits, err := database.GetOutfits(db, userID)
	if err != nil {
		renderError(c, err, "Failed to load outfits")
		return
	}

	c.HTML(http.StatusOK, "outfits.html", gin.H{
		"Title":     "Outfits - Closetry",
		"User":      user,
		"CSRFToken": newCSRFToken(c),
		"Outfits":   outfits,
	})
}

// handleSaveOutfit keeps a set of items, typically a generated suggestion,
// under a name.
func handleSaveOutfit(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sqlx.DB)

	name := c.PostForm("name")
	if name == "" {
		name = "Outfit"
	}
	if len(name) > 100 {
		name = name[:100]
	}

	var itemIDs []int
	for _, value := range c.PostFormArray("item_id") {
		id, err := strconv.Atoi(value)
		if err != nil || id <= 0 {
			renderError(c, database.ErrNotFound, "Invalid item ID")
			return
		}
		itemIDs = append(itemIDs, id)
	}

	if len(itemIDs) == 0 {
		c.Redirect(http.StatusFound, "/auto")
		return
	}

	saved, err := database.CreateOutfit(db, userID, name, itemIDs)
	if err != nil {
		renderError(c, err, "Failed to save outfit")
		return
	}

	logger.Debug("Outfit saved", "user_id", userID, "outfit_id", saved.ID, "items", len(itemIDs))
	c.Redirect(http.StatusFound, "/outfits")
}

func handleToggleFavorite(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sqlx.DB)

	outfitID, ok := paramID(c)
	if !ok {
		renderError(c, database.ErrNotFound, "Invalid outfit ID")
		return
	}

	if _, err := database.ToggleOutfitFavorite(db, userID, outfitID); err != nil {
		renderError(c, err, "Failed to update outfit")
		return
	}

	c.Redirect(http.StatusFound, "/outfits")
}

func handleDeleteOutfit(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sqlx.DB)

	outfitID, ok := paramID(c)
	if !ok {
		renderError(c, database.ErrNotFound, "Invalid outfit ID")
		return
	}

	if err := database.DeleteOutfit(db, userID, outfitID); err != nil {
		renderError(c, err, "Failed to delete outfit")
		return
	}

	c.Redirect(http.StatusFound, "/outfits")
}

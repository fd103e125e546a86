package outfit

import (
	"testing"

	"closetry/internal/database"
	"closetry/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	db, err := database.Initialize(":memory:")
	if err != nil {
		t.Fatal("Failed to open test database:", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal("Failed to run migrations:", err)
	}
	if err := database.Seed(db); err != nil {
		t.Fatal("Failed to seed database:", err)
	}
	return db
}

func addItem(t *testing.T, db *sqlx.DB, userID int, name string, category models.Category, seasonID *int) models.WardrobeItem {
	item, err := database.CreateItem(db, userID, models.WardrobeItem{
		Name:     name,
		Category: category,
		ImageURL: "https://img.example.com/" + name + ".jpg",
		SeasonID: seasonID,
	})
	if err != nil {
		t.Fatal("Failed to create item:", err)
	}
	return *item
}

func first(int) int { return 0 }

func last(n int) int { return n - 1 }

func countSuggestions(t *testing.T, db *sqlx.DB, userID int) int {
	n, err := database.CountSuggestions(db, userID)
	require.NoError(t, err)
	return n
}

func TestPartition(t *testing.T) {
	items := []models.WardrobeItem{
		{ID: 1, Category: models.CategoryTop},
		{ID: 2, Category: models.CategoryShoes},
		{ID: 3, Category: models.CategoryTop},
		{ID: 4, Category: "hat"},
	}

	groups := Partition(items)
	assert.Len(t, groups[models.CategoryTop], 2)
	assert.Len(t, groups[models.CategoryShoes], 1)
	assert.Empty(t, groups[models.CategoryBottom])
	assert.NotContains(t, groups, models.Category("hat"))
}

func TestChoose(t *testing.T) {
	items := []models.WardrobeItem{
		{ID: 1, Category: models.CategoryTop},
		{ID: 2, Category: models.CategoryTop},
		{ID: 3, Category: models.CategoryBottom},
		{ID: 4, Category: models.CategoryShoes},
		{ID: 5, Category: models.CategoryShoes},
	}

	got, err := Choose(items, first)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Top.ID)
	assert.Equal(t, 3, got.Bottom.ID)
	assert.Equal(t, 4, got.Shoes.ID)

	got, err = Choose(items, last)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Top.ID)
	assert.Equal(t, 3, got.Bottom.ID)
	assert.Equal(t, 5, got.Shoes.ID)
}

func TestChooseReportsEmptyCategory(t *testing.T) {
	tests := []struct {
		name  string
		items []models.WardrobeItem
	}{
		{"empty wardrobe", nil},
		{"no shoes", []models.WardrobeItem{
			{ID: 1, Category: models.CategoryTop},
			{ID: 2, Category: models.CategoryBottom},
			{ID: 3, Category: models.CategoryBottom},
		}},
		{"no top", []models.WardrobeItem{
			{ID: 1, Category: models.CategoryBottom},
			{ID: 2, Category: models.CategoryShoes},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Choose(tt.items, first)
			assert.ErrorIs(t, err, ErrInsufficientItems)
			assert.Nil(t, got)
		})
	}
}

func TestChooseIsUniformPerCategory(t *testing.T) {
	items := []models.WardrobeItem{
		{ID: 1, Category: models.CategoryTop},
		{ID: 2, Category: models.CategoryTop},
		{ID: 3, Category: models.CategoryTop},
		{ID: 4, Category: models.CategoryBottom},
		{ID: 5, Category: models.CategoryShoes},
	}

	var bounds []int
	record := func(n int) int {
		bounds = append(bounds, n)
		return 0
	}

	_, err := Choose(items, record)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 1}, bounds)
}

func TestGenerateInsufficientItems(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user, err := database.CreateUser(db, "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	addItem(t, db, user.ID, "tee", models.CategoryTop, nil)
	addItem(t, db, user.ID, "jeans", models.CategoryBottom, nil)
	addItem(t, db, user.ID, "chinos", models.CategoryBottom, nil)

	gen := NewGenerator(db).WithIntN(first)
	got, suggestion, err := gen.Generate(user.ID, models.ItemFilter{})
	assert.ErrorIs(t, err, ErrInsufficientItems)
	assert.Nil(t, got)
	assert.Nil(t, suggestion)
	assert.Equal(t, 0, countSuggestions(t, db, user.ID))
}

func TestGenerateExactlyOnePerCategory(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user, err := database.CreateUser(db, "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	top := addItem(t, db, user.ID, "tee", models.CategoryTop, nil)
	bottom := addItem(t, db, user.ID, "jeans", models.CategoryBottom, nil)
	shoes := addItem(t, db, user.ID, "sneakers", models.CategoryShoes, nil)

	got, suggestion, err := NewGenerator(db).Generate(user.ID, models.ItemFilter{})
	require.NoError(t, err)
	assert.Equal(t, top.ID, got.Top.ID)
	assert.Equal(t, bottom.ID, got.Bottom.ID)
	assert.Equal(t, shoes.ID, got.Shoes.ID)

	assert.Equal(t, 1, countSuggestions(t, db, user.ID))

	latest, err := database.GetLatestSuggestion(db, user.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, suggestion.ID, latest.ID)
	assert.Equal(t, top.ID, *latest.TopItemID)
	assert.Equal(t, bottom.ID, *latest.BottomItemID)
	assert.Equal(t, shoes.ID, *latest.ShoesItemID)
	assert.Nil(t, latest.SeasonID)
	assert.Nil(t, latest.StyleID)
}

func TestGenerateSkipsLaundryAndRecordsFilter(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user, err := database.CreateUser(db, "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	summer := 1
	dirty := addItem(t, db, user.ID, "dirty-tee", models.CategoryTop, &summer)
	clean := addItem(t, db, user.ID, "clean-tee", models.CategoryTop, &summer)
	addItem(t, db, user.ID, "winter-tee", models.CategoryTop, nil)
	bottom := addItem(t, db, user.ID, "shorts", models.CategoryBottom, &summer)
	shoes := addItem(t, db, user.ID, "sandals", models.CategoryShoes, &summer)

	require.NoError(t, database.MoveToLaundry(db, user.ID, dirty.ID))

	gen := NewGenerator(db).WithIntN(first)
	filter := models.ItemFilter{SeasonID: &summer}

	for i := 0; i < 3; i++ {
		got, suggestion, err := gen.Generate(user.ID, filter)
		require.NoError(t, err)
		assert.Equal(t, clean.ID, got.Top.ID)
		assert.Equal(t, bottom.ID, got.Bottom.ID)
		assert.Equal(t, shoes.ID, got.Shoes.ID)
		require.NotNil(t, suggestion.SeasonID)
		assert.Equal(t, summer, *suggestion.SeasonID)
		assert.Nil(t, suggestion.StyleID)
	}

	assert.Equal(t, 3, countSuggestions(t, db, user.ID))

	require.NoError(t, database.MoveToLaundry(db, user.ID, shoes.ID))
	_, _, err = gen.Generate(user.ID, filter)
	assert.ErrorIs(t, err, ErrInsufficientItems)
	assert.Equal(t, 3, countSuggestions(t, db, user.ID))
}

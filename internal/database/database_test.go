package database

import (
	"errors"
	"os"
	"testing"
	"time"

	"closetry/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	db, err := Initialize(":memory:")
	if err != nil {
		t.Fatal("Failed to open test database:", err)
	}

	if err := Migrate(db); err != nil {
		t.Fatal("Failed to run migrations:", err)
	}

	if err := Seed(db); err != nil {
		t.Fatal("Failed to seed database:", err)
	}

	return db
}

func createTestUser(t *testing.T, db *sqlx.DB, name string) *models.User {
	user, err := CreateUser(db, name, name+"@example.com", "password123")
	if err != nil {
		t.Fatal("Failed to create user:", err)
	}
	return user
}

func addTestItem(t *testing.T, db *sqlx.DB, userID int, name string, category models.Category, seasonID, styleID *int) *models.WardrobeItem {
	item, err := CreateItem(db, userID, models.WardrobeItem{
		Name:     name,
		Category: category,
		ImageURL: "https://img.example.com/" + name + ".jpg",
		SeasonID: seasonID,
		StyleID:  styleID,
	})
	if err != nil {
		t.Fatal("Failed to create item:", err)
	}
	return item
}

func ptr(v int) *int { return &v }

func itemIDs(items []models.WardrobeItem) []int {
	ids := make([]int, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestSeedIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	require.NoError(t, Seed(db))
	require.NoError(t, Seed(db))

	seasons, err := GetSeasons(db)
	require.NoError(t, err)
	assert.Len(t, seasons, len(BaseSeasons))

	styles, err := GetStyles(db)
	require.NoError(t, err)
	assert.Len(t, styles, len(BaseStyles))

	for i, s := range seasons {
		assert.Equal(t, BaseSeasons[i], s.Name)
	}
}

func TestUserCreationAndAuthentication(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user, err := CreateUser(db, "testuser", "test@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "testuser", user.Username)
	assert.Equal(t, "test@example.com", user.Email)
	assert.NotEqual(t, "password123", user.PasswordHash)

	authUser, err := AuthenticateUser(db, "test@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authUser.ID)

	_, wrongPassword := AuthenticateUser(db, "test@example.com", "wrongpassword")
	_, unknownEmail := AuthenticateUser(db, "nobody@example.com", "password123")
	assert.ErrorIs(t, wrongPassword, ErrAuthFailure)
	assert.ErrorIs(t, unknownEmail, ErrAuthFailure)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestCreateUserDuplicate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	createTestUser(t, db, "alice")

	_, err := CreateUser(db, "alice2", "alice@example.com", "password123")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = CreateUser(db, "alice", "other@example.com", "password123")
	assert.ErrorIs(t, err, ErrConflict)

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM users"))
	assert.Equal(t, 1, count)
}

func TestPasswordChange(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "alice")

	assert.ErrorIs(t, VerifyPassword(db, user.ID, "nope"), ErrAuthFailure)
	require.NoError(t, VerifyPassword(db, user.ID, "password123"))

	require.NoError(t, UpdatePassword(db, user.ID, "newpassword456"))

	_, err := AuthenticateUser(db, user.Email, "password123")
	assert.ErrorIs(t, err, ErrAuthFailure)
	_, err = AuthenticateUser(db, user.Email, "newpassword456")
	assert.NoError(t, err)
}

func TestSessionManagement(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "testuser")

	session, err := CreateSession(db, user.ID, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)

	validatedUser, err := ValidateSession(db, session.ID, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, user.ID, validatedUser.ID)

	require.NoError(t, DeleteSession(db, session.ID))

	_, err = ValidateSession(db, session.ID, time.Hour)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestExpiredSession(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "testuser")

	session, err := CreateSession(db, user.ID, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateSession(db, session.ID, time.Hour)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	require.NoError(t, CleanupExpiredSessions(db))

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM sessions"))
	assert.Equal(t, 0, count)
}

func TestCSRFTokensAreSingleUse(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	token, err := CreateCSRFToken(db, alice.ID)
	require.NoError(t, err)

	assert.Error(t, ValidateCSRFToken(db, token.Token, bob.ID))
	assert.NoError(t, ValidateCSRFToken(db, token.Token, alice.ID))
	assert.Error(t, ValidateCSRFToken(db, token.Token, alice.ID))
}

func TestCreateItemValidation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "alice")

	_, err := CreateItem(db, user.ID, models.WardrobeItem{Name: "Hat", Category: "hat", ImageURL: "x"})
	assert.Error(t, err)

	assert.NoError(t, ValidateTags(db, ptr(1), ptr(1)))
	assert.NoError(t, ValidateTags(db, nil, nil))
	assert.ErrorIs(t, ValidateTags(db, ptr(99), nil), ErrNotFound)
	assert.ErrorIs(t, ValidateTags(db, nil, ptr(99)), ErrNotFound)

	item := addTestItem(t, db, user.ID, "tee", models.CategoryTop, ptr(1), nil)
	got, err := GetItem(db, user.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "tee", got.Name)
	require.NotNil(t, got.SeasonName)
	assert.Equal(t, "summer", *got.SeasonName)
	assert.Nil(t, got.StyleID)
	assert.Nil(t, got.StyleName)

	other := createTestUser(t, db, "bob")
	_, err = GetItem(db, other.ID, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAvailableItemsExcludesLaundry(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "alice")
	top := addTestItem(t, db, user.ID, "tee", models.CategoryTop, nil, nil)
	bottom := addTestItem(t, db, user.ID, "jeans", models.CategoryBottom, nil, nil)

	require.NoError(t, MoveToLaundry(db, user.ID, top.ID))

	items, err := GetAvailableItems(db, user.ID, models.ItemFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int{bottom.ID}, itemIDs(items))

	all, err := GetItems(db, user.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAvailableItemsFilters(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	const summer, winter = 1, 2
	const casual, formal = 1, 2

	user := createTestUser(t, db, "alice")
	summerCasual := addTestItem(t, db, user.ID, "linen", models.CategoryTop, ptr(summer), ptr(casual))
	summerFormal := addTestItem(t, db, user.ID, "blazer", models.CategoryTop, ptr(summer), ptr(formal))
	winterCasual := addTestItem(t, db, user.ID, "hoodie", models.CategoryTop, ptr(winter), ptr(casual))
	untagged := addTestItem(t, db, user.ID, "plain", models.CategoryTop, nil, nil)

	tests := []struct {
		name   string
		filter models.ItemFilter
		want   []int
	}{
		{"no filter", models.ItemFilter{}, []int{summerCasual.ID, summerFormal.ID, winterCasual.ID, untagged.ID}},
		{"season only", models.ItemFilter{SeasonID: ptr(summer)}, []int{summerCasual.ID, summerFormal.ID}},
		{"style only", models.ItemFilter{StyleID: ptr(casual)}, []int{summerCasual.ID, winterCasual.ID}},
		{"season and style", models.ItemFilter{SeasonID: ptr(summer), StyleID: ptr(formal)}, []int{summerFormal.ID}},
		{"no match", models.ItemFilter{SeasonID: ptr(winter), StyleID: ptr(formal)}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := GetAvailableItems(db, user.ID, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, itemIDs(items))
		})
	}
}

func TestAvailableItemsAreScopedToUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	addTestItem(t, db, alice.ID, "tee", models.CategoryTop, nil, nil)

	items, err := GetAvailableItems(db, bob.ID, models.ItemFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLaundryLifecycle(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "alice")
	item := addTestItem(t, db, user.ID, "tee", models.CategoryTop, nil, nil)

	require.NoError(t, MoveToLaundry(db, user.ID, item.ID))
	require.NoError(t, MoveToLaundry(db, user.ID, item.ID))

	entries, err := GetLaundryItems(db, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, item.ID, entries[0].ItemID)
	require.NotNil(t, entries[0].Item)
	assert.Equal(t, "tee", entries[0].Item.Name)

	restored, err := RestoreFromLaundry(db, user.ID, item.ID)
	require.NoError(t, err)
	assert.True(t, restored)

	inLaundry, err := IsInLaundry(db, user.ID, item.ID)
	require.NoError(t, err)
	assert.False(t, inLaundry)

	restored, err = RestoreFromLaundry(db, user.ID, item.ID)
	require.NoError(t, err)
	assert.False(t, restored)

	require.NoError(t, MoveToLaundry(db, user.ID, item.ID))
	inLaundry, err = IsInLaundry(db, user.ID, item.ID)
	require.NoError(t, err)
	assert.True(t, inLaundry)
}

func TestLaundryOwnership(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	item := addTestItem(t, db, alice.ID, "tee", models.CategoryTop, nil, nil)

	assert.ErrorIs(t, MoveToLaundry(db, bob.ID, item.ID), ErrForbidden)
	assert.ErrorIs(t, MoveToLaundry(db, alice.ID, 9999), ErrNotFound)

	require.NoError(t, MoveToLaundry(db, alice.ID, item.ID))

	restored, err := RestoreFromLaundry(db, bob.ID, item.ID)
	require.NoError(t, err)
	assert.False(t, restored)

	inLaundry, err := IsInLaundry(db, alice.ID, item.ID)
	require.NoError(t, err)
	assert.True(t, inLaundry)
}

func TestMoveToLaundryConcurrentInsert(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db := sqlx.NewDb(mockDB, "sqlmock")

	mock.ExpectQuery("SELECT user_id FROM wardrobe_items").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(1))
	mock.ExpectExec("INSERT INTO laundry").
		WithArgs(1, 7, sqlmock.AnyArg()).
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})

	assert.NoError(t, MoveToLaundry(db, 1, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveToLaundryStoreFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db := sqlx.NewDb(mockDB, "sqlmock")
	storeErr := errors.New("disk I/O error")

	mock.ExpectQuery("SELECT user_id FROM wardrobe_items").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(1))
	mock.ExpectExec("INSERT INTO laundry").
		WithArgs(1, 7, sqlmock.AnyArg()).
		WillReturnError(storeErr)

	assert.ErrorIs(t, MoveToLaundry(db, 1, 7), storeErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteItemCascades(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	top := addTestItem(t, db, alice.ID, "tee", models.CategoryTop, nil, nil)
	bottom := addTestItem(t, db, alice.ID, "jeans", models.CategoryBottom, nil, nil)

	require.NoError(t, MoveToLaundry(db, alice.ID, top.ID))
	_, err := CreateOutfit(db, alice.ID, "weekend", []int{top.ID, bottom.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, DeleteItem(db, bob.ID, top.ID), ErrForbidden)
	assert.ErrorIs(t, DeleteItem(db, alice.ID, 9999), ErrNotFound)

	require.NoError(t, DeleteItem(db, alice.ID, top.ID))

	_, err = GetItem(db, alice.ID, top.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var laundryCount, linkCount int
	require.NoError(t, db.Get(&laundryCount, "SELECT COUNT(*) FROM laundry WHERE item_id = ?", top.ID))
	require.NoError(t, db.Get(&linkCount, "SELECT COUNT(*) FROM outfit_items WHERE item_id = ?", top.ID))
	assert.Equal(t, 0, laundryCount)
	assert.Equal(t, 0, linkCount)

	outfits, err := GetOutfits(db, alice.ID)
	require.NoError(t, err)
	require.Len(t, outfits, 1)
	assert.Equal(t, []int{bottom.ID}, itemIDs(outfits[0].Items))
}

func TestLatestSuggestion(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "alice")

	latest, err := GetLatestSuggestion(db, user.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	older := time.Now().UTC().Add(-time.Hour)
	_, err = CreateSuggestion(db, models.OutfitSuggestion{UserID: user.ID, TopItemID: ptr(1), CreatedAt: older})
	require.NoError(t, err)

	newer := time.Now().UTC()
	first, err := CreateSuggestion(db, models.OutfitSuggestion{UserID: user.ID, TopItemID: ptr(2), CreatedAt: newer})
	require.NoError(t, err)
	second, err := CreateSuggestion(db, models.OutfitSuggestion{UserID: user.ID, TopItemID: ptr(3), CreatedAt: newer})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	latest, err = GetLatestSuggestion(db, user.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
	require.NotNil(t, latest.TopItemID)
	assert.Equal(t, 3, *latest.TopItemID)

	count, err := CountSuggestions(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestResolveSuggestionWithDeletedItem(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "alice")
	top := addTestItem(t, db, user.ID, "tee", models.CategoryTop, nil, nil)
	bottom := addTestItem(t, db, user.ID, "jeans", models.CategoryBottom, nil, nil)
	shoes := addTestItem(t, db, user.ID, "sneakers", models.CategoryShoes, nil, nil)

	s, err := CreateSuggestion(db, models.OutfitSuggestion{
		UserID:       user.ID,
		TopItemID:    ptr(top.ID),
		BottomItemID: ptr(bottom.ID),
		ShoesItemID:  ptr(shoes.ID),
	})
	require.NoError(t, err)

	require.NoError(t, DeleteItem(db, user.ID, bottom.ID))

	latest, err := GetLatestSuggestion(db, user.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, s.ID, latest.ID)
	require.NotNil(t, latest.BottomItemID)
	assert.Equal(t, bottom.ID, *latest.BottomItemID)

	resolved, err := ResolveSuggestion(db, latest)
	require.NoError(t, err)
	require.NotNil(t, resolved.Top)
	require.NotNil(t, resolved.Shoes)
	assert.Equal(t, top.ID, resolved.Top.ID)
	assert.Equal(t, shoes.ID, resolved.Shoes.ID)
	assert.Nil(t, resolved.Bottom)
}

func TestOutfitOperations(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	top := addTestItem(t, db, alice.ID, "tee", models.CategoryTop, nil, nil)
	shoes := addTestItem(t, db, alice.ID, "sneakers", models.CategoryShoes, nil, nil)
	bobsItem := addTestItem(t, db, bob.ID, "scarf", models.CategoryTop, nil, nil)

	_, err := CreateOutfit(db, alice.ID, "stolen", []int{top.ID, bobsItem.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	first, err := CreateOutfit(db, alice.ID, "first", []int{top.ID, shoes.ID, top.ID})
	require.NoError(t, err)
	second, err := CreateOutfit(db, alice.ID, "second", []int{shoes.ID})
	require.NoError(t, err)

	favorite, err := ToggleOutfitFavorite(db, alice.ID, first.ID)
	require.NoError(t, err)
	assert.True(t, favorite)

	_, err = ToggleOutfitFavorite(db, bob.ID, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	outfits, err := GetOutfits(db, alice.ID)
	require.NoError(t, err)
	require.Len(t, outfits, 2)
	assert.Equal(t, first.ID, outfits[0].ID)
	assert.True(t, outfits[0].IsFavorite)
	assert.Equal(t, []int{top.ID, shoes.ID}, itemIDs(outfits[0].Items))
	assert.Equal(t, second.ID, outfits[1].ID)

	assert.ErrorIs(t, DeleteOutfit(db, bob.ID, first.ID), ErrForbidden)
	assert.ErrorIs(t, DeleteOutfit(db, alice.ID, 9999), ErrNotFound)
	require.NoError(t, DeleteOutfit(db, alice.ID, first.ID))

	outfits, err = GetOutfits(db, alice.ID)
	require.NoError(t, err)
	require.Len(t, outfits, 1)
	assert.Equal(t, second.ID, outfits[0].ID)
}

func TestUserStats(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "alice")
	top := addTestItem(t, db, user.ID, "tee", models.CategoryTop, nil, nil)
	addTestItem(t, db, user.ID, "polo", models.CategoryTop, nil, nil)
	addTestItem(t, db, user.ID, "jeans", models.CategoryBottom, nil, nil)

	require.NoError(t, MoveToLaundry(db, user.ID, top.ID))
	outfit, err := CreateOutfit(db, user.ID, "look", []int{top.ID})
	require.NoError(t, err)
	_, err = ToggleOutfitFavorite(db, user.ID, outfit.ID)
	require.NoError(t, err)
	_, err = CreateSuggestion(db, models.OutfitSuggestion{UserID: user.ID})
	require.NoError(t, err)

	stats, err := GetUserStats(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalItems)
	assert.Equal(t, 2, stats.ItemsByCategory[models.CategoryTop])
	assert.Equal(t, 1, stats.ItemsByCategory[models.CategoryBottom])
	assert.Equal(t, 0, stats.ItemsByCategory[models.CategoryShoes])
	assert.Equal(t, 1, stats.InLaundry)
	assert.Equal(t, 2, stats.Available)
	assert.Equal(t, 1, stats.Suggestions)
	assert.Equal(t, 1, stats.Outfits)
	assert.Equal(t, 1, stats.FavoriteOutfits)
}

func TestDeleteUserRemovesOwnedRows(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	top := addTestItem(t, db, alice.ID, "tee", models.CategoryTop, nil, nil)
	bobsItem := addTestItem(t, db, bob.ID, "scarf", models.CategoryTop, nil, nil)

	require.NoError(t, MoveToLaundry(db, alice.ID, top.ID))
	_, err := CreateOutfit(db, alice.ID, "look", []int{top.ID})
	require.NoError(t, err)
	_, err = CreateSuggestion(db, models.OutfitSuggestion{UserID: alice.ID, TopItemID: ptr(top.ID)})
	require.NoError(t, err)
	_, err = CreateSession(db, alice.ID, time.Hour)
	require.NoError(t, err)

	require.NoError(t, DeleteUser(db, alice.ID))
	assert.ErrorIs(t, DeleteUser(db, alice.ID), ErrNotFound)

	for _, table := range []string{"wardrobe_items", "laundry", "outfits", "outfit_suggestions", "sessions"} {
		var count int
		require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM "+table+" WHERE user_id = ?", alice.ID))
		assert.Equal(t, 0, count, table)
	}

	_, err = GetItem(db, bob.ID, bobsItem.ID)
	assert.NoError(t, err)
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

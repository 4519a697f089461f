package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	accountdomain "github.com/contenivelabs/renewal/internal/account/domain"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&accountdomain.Account{}, &accountdomain.AccountOption{}))
	return db
}

func TestInsertAndFindByID(t *testing.T) {
	db := openTestDB(t)
	repo := Provide()
	node, _ := snowflake.NewNode(1)
	ctx := context.Background()

	now := time.Now().UTC()
	account := &accountdomain.Account{
		ID:                     node.Generate(),
		Email:                  "owner@example.com",
		Currency:               "usd",
		ProcessorCustomerID:    "cus_1",
		DefaultPaymentMethodID: "pm_1",
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	require.NoError(t, repo.Insert(ctx, db, account))

	found, err := repo.FindByID(ctx, db, account.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "cus_1", found.ProcessorCustomerID)

	missing, err := repo.FindByID(ctx, db, node.Generate())
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestAutorenewEnabledNormalization(t *testing.T) {
	db := openTestDB(t)
	repo := Provide()
	node, _ := snowflake.NewNode(1)
	ctx := context.Background()

	accountID := node.Generate()

	// Missing option means disabled.
	enabled, err := repo.AutorenewEnabled(ctx, db, accountID)
	require.NoError(t, err)
	require.False(t, enabled)

	cases := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"yes", true},
		{"0", false},
		{"false", false},
		{"", false},
		{"maybe", false},
	}
	for _, tc := range cases {
		require.NoError(t, repo.SetOption(ctx, db, accountID, accountdomain.OptionAutorenew, tc.value))
		enabled, err := repo.AutorenewEnabled(ctx, db, accountID)
		require.NoError(t, err)
		require.Equal(t, tc.want, enabled, "value %q", tc.value)
	}
}

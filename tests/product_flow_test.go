// Package tests contains integration tests for the campaign tracking flows
package tests

import (
	"fmt"
	"testing"

	"github.com/trackfluence/trackfluence/app/dto"
	businessflow "github.com/trackfluence/trackfluence/business_flow"
	"github.com/trackfluence/trackfluence/models"
	"github.com/trackfluence/trackfluence/repository"
	testingutil "github.com/trackfluence/trackfluence/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProductFlow(testDB *testingutil.TestDB) businessflow.ProductFlow {
	return businessflow.NewProductFlow(
		repository.NewProductRepository(testDB.DB),
		repository.NewUserRepository(testDB.DB),
	)
}

func TestProductFlow(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	productFlow := newTestProductFlow(testDB)
	ctx := testingutil.CreateTestContext()

	owner, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
	require.NoError(t, err)
	influencer, err := fixtures.CreateTestUser(models.RoleInfluencer)
	require.NoError(t, err)

	t.Run("AnyAuthenticatedRoleCanCreate", func(t *testing.T) {
		for i, userID := range []uint{owner.ID, influencer.ID} {
			result, err := productFlow.CreateProduct(ctx, &dto.CreateProductRequest{
				UserID:      userID,
				Name:        fmt.Sprintf("Gadget %d", i),
				Description: "A product for the catalog",
				Price:       19.99,
			})
			require.NoError(t, err)
			assert.Equal(t, userID, result.UserID)
			assert.NotEmpty(t, result.UUID)
		}
	})

	t.Run("UnknownUserRejected", func(t *testing.T) {
		_, err := productFlow.CreateProduct(ctx, &dto.CreateProductRequest{
			UserID: 999999,
			Name:   "Ghost Gadget",
			Price:  1,
		})
		require.Error(t, err)
		assert.True(t, businessflow.IsUserNotFound(err))
	})

	t.Run("CatalogIsSharedAcrossUsers", func(t *testing.T) {
		result, err := productFlow.ListProducts(ctx, 1, 20)
		require.NoError(t, err)

		// Both creators' products appear regardless of who asks
		require.Len(t, result.Items, 2)
		creators := map[uint]bool{}
		for _, item := range result.Items {
			creators[item.UserID] = true
		}
		assert.True(t, creators[owner.ID])
		assert.True(t, creators[influencer.ID])
	})

	t.Run("NewestFirst", func(t *testing.T) {
		latest, err := productFlow.CreateProduct(ctx, &dto.CreateProductRequest{
			UserID: owner.ID,
			Name:   "Latest Gadget",
			Price:  5,
		})
		require.NoError(t, err)

		result, err := productFlow.ListProducts(ctx, 1, 20)
		require.NoError(t, err)
		require.NotEmpty(t, result.Items)
		assert.Equal(t, latest.ID, result.Items[0].ID)
	})

	t.Run("PageSizeCapped", func(t *testing.T) {
		_, err := productFlow.ListProducts(ctx, 1, 500)
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidPageSize(err))
	})

	t.Run("GetProduct", func(t *testing.T) {
		created, err := productFlow.CreateProduct(ctx, &dto.CreateProductRequest{
			UserID: owner.ID,
			Name:   "Lookup Gadget",
			Price:  42,
		})
		require.NoError(t, err)

		result, err := productFlow.GetProduct(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Lookup Gadget", result.Name)

		_, err = productFlow.GetProduct(ctx, 999999)
		require.Error(t, err)
		assert.True(t, businessflow.IsProductNotFound(err))
	})
}

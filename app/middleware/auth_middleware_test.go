package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/trackfluence/trackfluence/models"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoleGateApp(capability models.Capability, role *models.Role) *fiber.App {
	app := fiber.New()
	app.Post("/gated", func(c fiber.Ctx) error {
		if role != nil {
			c.Locals("user_role", *role)
		}
		return c.Next()
	}, RequireRole(capability), func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	return app
}

func postGated(t *testing.T, app *fiber.App) int {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/gated", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestRequireRole(t *testing.T) {
	t.Run("AllowedRolePasses", func(t *testing.T) {
		role := models.RoleBusinessOwner
		app := newRoleGateApp(models.CapabilityCreateCampaign, &role)
		assert.Equal(t, fiber.StatusCreated, postGated(t, app))
	})

	t.Run("AdminPassesCreateGate", func(t *testing.T) {
		role := models.RoleAdmin
		app := newRoleGateApp(models.CapabilityCreateCampaign, &role)
		assert.Equal(t, fiber.StatusCreated, postGated(t, app))
	})

	t.Run("ForbiddenRoleRejected", func(t *testing.T) {
		role := models.RoleInfluencer
		app := newRoleGateApp(models.CapabilityCreateCampaign, &role)
		assert.Equal(t, fiber.StatusForbidden, postGated(t, app))
	})

	t.Run("OnlyInfluencerPassesLinkGate", func(t *testing.T) {
		influencer := models.RoleInfluencer
		app := newRoleGateApp(models.CapabilityGenerateTrackingLink, &influencer)
		assert.Equal(t, fiber.StatusCreated, postGated(t, app))

		owner := models.RoleBusinessOwner
		app = newRoleGateApp(models.CapabilityGenerateTrackingLink, &owner)
		assert.Equal(t, fiber.StatusForbidden, postGated(t, app))
	})

	t.Run("MissingRoleIsUnauthorized", func(t *testing.T) {
		app := newRoleGateApp(models.CapabilityCreateCampaign, nil)
		assert.Equal(t, fiber.StatusUnauthorized, postGated(t, app))
	})
}

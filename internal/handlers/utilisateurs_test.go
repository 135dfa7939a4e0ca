package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carnet-medical-server/internal/models"
)

func TestCreateUtilisateur(t *testing.T) {
	router, db, cfg := setupTest(t)
	admin := createUtilisateur(t, db, models.RoleAdmin, "admin@clinic.cd", "secret1")
	token := tokenFor(t, cfg, admin)

	t.Run("creates a staff account without echoing the hash", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/utilisateurs", token, map[string]string{
			"noms":         "Kalala Jean",
			"email":        "jean@clinic.cd",
			"mot_de_passe": "motdepasse",
			"role":         "medecin",
		})
		requireStatus(t, rec, http.StatusCreated)
		assert.NotContains(t, rec.Body.String(), "mot_de_passe")
		assert.NotContains(t, rec.Body.String(), "$2a$") // bcrypt prefix

		var created models.UtilisateurSanitized
		decodeData(t, rec, &created)
		assert.Equal(t, models.RoleMedecin, created.Role)
		assert.Equal(t, models.StatutActif, created.Statut)
	})

	t.Run("missing required fields is 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/utilisateurs", token, map[string]string{
			"noms": "Sans Email",
		})
		requireStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("invalid role is 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/utilisateurs", token, map[string]string{
			"noms":         "Mauvais Rôle",
			"email":        "role@clinic.cd",
			"mot_de_passe": "motdepasse",
			"role":         "superviseur",
		})
		requireStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("duplicate email is 409 and leaves the original untouched", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/utilisateurs", token, map[string]string{
			"noms":         "Imposteur",
			"email":        "jean@clinic.cd",
			"mot_de_passe": "autre",
			"role":         "laborantin",
		})
		requireStatus(t, rec, http.StatusConflict)

		var original models.Utilisateur
		require.NoError(t, db.First(&original, "email = ?", "jean@clinic.cd").Error)
		assert.Equal(t, "Kalala Jean", original.Noms)
		assert.Equal(t, models.RoleMedecin, original.Role)
	})

	t.Run("non-admin may not create staff", func(t *testing.T) {
		medecin := createUtilisateur(t, db, models.RoleMedecin, "autre@clinic.cd", "secret1")
		rec := doJSON(t, router, http.MethodPost, "/api/v1/utilisateurs", tokenFor(t, cfg, medecin), map[string]string{
			"noms":         "X",
			"email":        "x@clinic.cd",
			"mot_de_passe": "motdepasse",
			"role":         "admin",
		})
		requireStatus(t, rec, http.StatusForbidden)
	})
}

func TestChangePassword(t *testing.T) {
	router, db, cfg := setupTest(t)
	user := createUtilisateur(t, db, models.RoleReceptionniste, "accueil@clinic.cd", "ancien-mdp")
	token := tokenFor(t, cfg, user)

	t.Run("wrong old password is 400 and the hash is unchanged", func(t *testing.T) {
		var before models.Utilisateur
		require.NoError(t, db.First(&before, "id = ?", user.ID).Error)

		rec := doJSON(t, router, http.MethodPut, "/api/v1/utilisateurs/me/password", token, map[string]string{
			"ancien_mdp":  "faux",
			"nouveau_mdp": "nouveau-mdp",
		})
		requireStatus(t, rec, http.StatusBadRequest)

		var after models.Utilisateur
		require.NoError(t, db.First(&after, "id = ?", user.ID).Error)
		assert.Equal(t, before.MotDePasse, after.MotDePasse)
	})

	t.Run("correct old password rotates the credential", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPut, "/api/v1/utilisateurs/me/password", token, map[string]string{
			"ancien_mdp":  "ancien-mdp",
			"nouveau_mdp": "nouveau-mdp",
		})
		requireStatus(t, rec, http.StatusOK)

		// new password authenticates
		rec = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email":        "accueil@clinic.cd",
			"mot_de_passe": "nouveau-mdp",
		})
		requireStatus(t, rec, http.StatusOK)

		// old one no longer does
		rec = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email":        "accueil@clinic.cd",
			"mot_de_passe": "ancien-mdp",
		})
		requireStatus(t, rec, http.StatusUnauthorized)
	})
}

func TestResetPassword(t *testing.T) {
	router, db, cfg := setupTest(t)
	admin := createUtilisateur(t, db, models.RoleAdmin, "admin@clinic.cd", "secret1")
	user := createUtilisateur(t, db, models.RoleLaborantin, "labo@clinic.cd", "oublié")

	t.Run("default password is applied and echoed once", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPut, "/api/v1/utilisateurs/"+user.ID+"/password", tokenFor(t, cfg, admin),
			map[string]string{})
		requireStatus(t, rec, http.StatusOK)

		var data struct {
			NewPassword string `json:"newPassword"`
		}
		decodeData(t, rec, &data)
		assert.Equal(t, "123456", data.NewPassword)

		rec = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email":        "labo@clinic.cd",
			"mot_de_passe": "123456",
		})
		requireStatus(t, rec, http.StatusOK)
	})

	t.Run("reset is admin-only", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPut, "/api/v1/utilisateurs/"+admin.ID+"/password", tokenFor(t, cfg, user),
			map[string]string{"mot_de_passe": "pirate"})
		requireStatus(t, rec, http.StatusForbidden)
	})

	t.Run("unknown user is 404", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPut, "/api/v1/utilisateurs/missing/password", tokenFor(t, cfg, admin),
			map[string]string{})
		requireStatus(t, rec, http.StatusNotFound)
	})
}

func TestGetProfile(t *testing.T) {
	router, db, cfg := setupTest(t)
	user := createUtilisateur(t, db, models.RoleMedecin, "medecin@clinic.cd", "secret1")

	rec := doJSON(t, router, http.MethodGet, "/api/v1/utilisateurs/me", tokenFor(t, cfg, user), nil)
	requireStatus(t, rec, http.StatusOK)

	body := rec.Body.String()
	assert.False(t, strings.Contains(body, "mot_de_passe"), "profile must not expose the password field")
	assert.False(t, strings.Contains(body, "$2a$"), "profile must not expose the bcrypt hash")

	var profile models.UtilisateurSanitized
	decodeData(t, rec, &profile)
	assert.Equal(t, user.ID, profile.ID)
	assert.Equal(t, "medecin@clinic.cd", profile.Email)
}

func TestUpdateProfileWhitelist(t *testing.T) {
	router, db, cfg := setupTest(t)
	user := createUtilisateur(t, db, models.RoleReceptionniste, "accueil@clinic.cd", "secret1")

	// role cannot be self-escalated through the profile route
	rec := doJSON(t, router, http.MethodPut, "/api/v1/utilisateurs/me", tokenFor(t, cfg, user), map[string]string{
		"noms": "Nouveau Nom",
		"role": "admin",
	})
	requireStatus(t, rec, http.StatusOK)

	var stored models.Utilisateur
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.Equal(t, "Nouveau Nom", stored.Noms)
	assert.Equal(t, models.RoleReceptionniste, stored.Role)
}

func TestProfileRoutesWithDeletedUser(t *testing.T) {
	router, db, cfg := setupTest(t)
	user := createUtilisateur(t, db, models.RoleMedecin, "parti@clinic.cd", "secret1")
	token := tokenFor(t, cfg, user)
	require.NoError(t, db.Delete(&models.Utilisateur{}, "id = ?", user.ID).Error)

	rec := doJSON(t, router, http.MethodPut, "/api/v1/utilisateurs/me", token, map[string]string{
		"noms": "Fantôme",
	})
	requireStatus(t, rec, http.StatusNotFound)

	rec = doJSON(t, router, http.MethodPut, "/api/v1/utilisateurs/me/password", token, map[string]string{
		"ancien_mdp":  "secret1",
		"nouveau_mdp": "secret2",
	})
	requireStatus(t, rec, http.StatusNotFound)
}

func TestUtilisateurDashboard(t *testing.T) {
	router, db, cfg := setupTest(t)
	admin := createUtilisateur(t, db, models.RoleAdmin, "admin@clinic.cd", "secret1")
	createUtilisateur(t, db, models.RoleMedecin, "m1@clinic.cd", "secret1")
	createUtilisateur(t, db, models.RoleMedecin, "m2@clinic.cd", "secret1")
	createUtilisateur(t, db, models.RoleLaborantin, "l1@clinic.cd", "secret1")

	rec := doJSON(t, router, http.MethodGet, "/api/v1/utilisateurs/dashboard", tokenFor(t, cfg, admin), nil)
	requireStatus(t, rec, http.StatusOK)

	var dash struct {
		Total    int64            `json:"total"`
		Actifs   int64            `json:"actifs"`
		Inactifs int64            `json:"inactifs"`
		ParRole  map[string]int64 `json:"parRole"`
	}
	decodeData(t, rec, &dash)

	assert.Equal(t, int64(4), dash.Total)
	assert.Equal(t, int64(4), dash.Actifs)
	assert.Zero(t, dash.Inactifs)
	assert.Equal(t, int64(2), dash.ParRole["medecin"])
	assert.Equal(t, int64(1), dash.ParRole["admin"])
	assert.Equal(t, int64(1), dash.ParRole["laborantin"])
}

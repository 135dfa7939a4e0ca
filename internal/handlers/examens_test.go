package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"carnet-medical-server/internal/models"
)

func TestPrescrireExamen(t *testing.T) {
	router, db, cfg := setupTest(t)

	medecin := createUtilisateur(t, db, models.RoleMedecin, "medecin@clinic.cd", "secret1")
	laborantin := createUtilisateur(t, db, models.RoleLaborantin, "labo@clinic.cd", "secret1")
	patient := createPatient(t, db, "Mbuyi")
	consultation := newConsultation(t, db, patient.ID, medecin.ID, models.ConsultationOuverte, nil)

	t.Run("doctor prescribes an exam in prescrit state", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/examens", tokenFor(t, cfg, medecin), map[string]string{
			"consultation_id": consultation.ID,
			"type_examen":     "goutte épaisse",
		})
		requireStatus(t, rec, http.StatusCreated)

		var examen models.Examen
		decodeData(t, rec, &examen)
		assert.Equal(t, models.ExamenPrescrit, examen.Statut)
		assert.Equal(t, "goutte épaisse", examen.TypeExamen)
		assert.Equal(t, medecin.ID, examen.MedecinID)
	})

	t.Run("unknown consultation is 404", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/examens", tokenFor(t, cfg, medecin), map[string]string{
			"consultation_id": "missing",
			"type_examen":     "NFS",
		})
		requireStatus(t, rec, http.StatusNotFound)
	})

	t.Run("lab technician may not prescribe", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/examens", tokenFor(t, cfg, laborantin), map[string]string{
			"consultation_id": consultation.ID,
			"type_examen":     "NFS",
		})
		requireStatus(t, rec, http.StatusForbidden)
	})
}

func newExamen(t *testing.T, db *gorm.DB, consultationID, medecinID string) models.Examen {
	t.Helper()
	examen := models.Examen{
		ConsultationID: consultationID,
		MedecinID:      medecinID,
		TypeExamen:     "NFS",
		Statut:         models.ExamenPrescrit,
	}
	require.NoError(t, db.Create(&examen).Error)
	return examen
}

func TestExamenResultats(t *testing.T) {
	router, db, cfg := setupTest(t)

	medecin := createUtilisateur(t, db, models.RoleMedecin, "medecin@clinic.cd", "secret1")
	laborantin := createUtilisateur(t, db, models.RoleLaborantin, "labo@clinic.cd", "secret1")
	receptionniste := createUtilisateur(t, db, models.RoleReceptionniste, "accueil@clinic.cd", "secret1")
	patient := createPatient(t, db, "Mbuyi")
	consultation := newConsultation(t, db, patient.ID, medecin.ID, models.ConsultationOuverte, nil)
	examen := newExamen(t, db, consultation.ID, medecin.ID)

	t.Run("result entry moves the exam to en_cours and records the technician", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/examens/"+examen.ID+"/resultats", tokenFor(t, cfg, laborantin),
			map[string]interface{}{
				"resultats": []map[string]string{
					{"parametre": "hémoglobine", "valeur": "12.1", "unite": "g/dL"},
					{"parametre": "plaquettes", "valeur": "240", "unite": "10^9/L"},
				},
			})
		requireStatus(t, rec, http.StatusOK)

		var updated models.Examen
		require.NoError(t, db.Preload("Resultats").First(&updated, "id = ?", examen.ID).Error)
		assert.Equal(t, models.ExamenEnCours, updated.Statut)
		require.NotNil(t, updated.LaborantinID)
		assert.Equal(t, laborantin.ID, *updated.LaborantinID)
		assert.Len(t, updated.Resultats, 2)
	})

	t.Run("a second entry replaces the previous result set", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/examens/"+examen.ID+"/resultats", tokenFor(t, cfg, laborantin),
			map[string]interface{}{
				"resultats": []map[string]string{
					{"parametre": "hémoglobine", "valeur": "11.8", "unite": "g/dL"},
				},
			})
		requireStatus(t, rec, http.StatusOK)

		var count int64
		require.NoError(t, db.Model(&models.ResultatExamen{}).Where("examen_id = ?", examen.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("doctor may not enter results", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/examens/"+examen.ID+"/resultats", tokenFor(t, cfg, medecin),
			map[string]interface{}{
				"resultats": []map[string]string{{"parametre": "x"}},
			})
		requireStatus(t, rec, http.StatusForbidden)
	})

	t.Run("interpretation moves the exam to valide", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPut, "/api/v1/examens/"+examen.ID+"/interpreter", tokenFor(t, cfg, medecin),
			map[string]string{"interpretation": "anémie légère"})
		requireStatus(t, rec, http.StatusOK)

		var updated models.Examen
		require.NoError(t, db.First(&updated, "id = ?", examen.ID).Error)
		assert.Equal(t, models.ExamenValide, updated.Statut)
		assert.Equal(t, "anémie légère", updated.Interpretation)
	})

	t.Run("detail read is open to the receptionist", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/v1/examens/"+examen.ID, tokenFor(t, cfg, receptionniste), nil)
		requireStatus(t, rec, http.StatusOK)

		var detail models.Examen
		decodeData(t, rec, &detail)
		assert.Len(t, detail.Resultats, 1)
	})
}

func TestSupprimerExamenCascade(t *testing.T) {
	router, db, cfg := setupTest(t)

	medecin := createUtilisateur(t, db, models.RoleMedecin, "medecin@clinic.cd", "secret1")
	patient := createPatient(t, db, "Mbuyi")
	consultation := newConsultation(t, db, patient.ID, medecin.ID, models.ConsultationOuverte, nil)
	examen := newExamen(t, db, consultation.ID, medecin.ID)

	resultat := models.ResultatExamen{ExamenID: examen.ID, Parametre: "hémoglobine", Valeur: "12"}
	require.NoError(t, db.Create(&resultat).Error)

	rec := doJSON(t, router, http.MethodDelete, "/api/v1/examens/"+examen.ID, tokenFor(t, cfg, medecin), nil)
	requireStatus(t, rec, http.StatusOK)

	var examCount, resultCount int64
	require.NoError(t, db.Model(&models.Examen{}).Where("id = ?", examen.ID).Count(&examCount).Error)
	require.NoError(t, db.Model(&models.ResultatExamen{}).Where("examen_id = ?", examen.ID).Count(&resultCount).Error)
	assert.Zero(t, examCount)
	assert.Zero(t, resultCount)
}

func TestListExamensFilters(t *testing.T) {
	router, db, cfg := setupTest(t)

	medecin := createUtilisateur(t, db, models.RoleMedecin, "medecin@clinic.cd", "secret1")
	patient := createPatient(t, db, "Mbuyi")
	consultation := newConsultation(t, db, patient.ID, medecin.ID, models.ConsultationOuverte, nil)

	nfs := newExamen(t, db, consultation.ID, medecin.ID)
	glycemie := models.Examen{
		ConsultationID: consultation.ID,
		MedecinID:      medecin.ID,
		TypeExamen:     "glycémie",
		Statut:         models.ExamenValide,
	}
	require.NoError(t, db.Create(&glycemie).Error)

	token := tokenFor(t, cfg, medecin)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/examens?statut=prescrit", token, nil)
	requireStatus(t, rec, http.StatusOK)
	var list []models.Examen
	decodeData(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, nfs.ID, list[0].ID)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/examens?type_examen=glyc%C3%A9mie", token, nil)
	requireStatus(t, rec, http.StatusOK)
	list = nil
	decodeData(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, glycemie.ID, list[0].ID)
}

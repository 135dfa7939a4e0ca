package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"carnet-medical-server/internal/middleware"
	"carnet-medical-server/internal/models"
	"carnet-medical-server/internal/utils"
)

// ExamenHandler owns the lab exam workflow: prescription by a doctor,
// result entry by a lab technician, interpretation by a doctor.
type ExamenHandler struct {
	DB *gorm.DB
}

// NewExamenHandler creates a new ExamenHandler.
func NewExamenHandler(db *gorm.DB) *ExamenHandler {
	return &ExamenHandler{DB: db}
}

// GetAll lists exams with optional filters on type, statut, doctor and lab technician.
func (h *ExamenHandler) GetAll(c *gin.Context) {
	query := h.DB.
		Preload("Resultats").
		Order("date_prescription desc")

	if typeExamen := c.Query("type_examen"); typeExamen != "" {
		query = query.Where("type_examen = ?", typeExamen)
	}
	if statut := c.Query("statut"); statut != "" {
		query = query.Where("statut = ?", statut)
	}
	if medecinID := c.Query("medecin_id"); medecinID != "" {
		query = query.Where("medecin_id = ?", medecinID)
	}
	if laborantinID := c.Query("laborantin_id"); laborantinID != "" {
		query = query.Where("laborantin_id = ?", laborantinID)
	}

	var examens []models.Examen
	if err := query.Find(&examens).Error; err != nil {
		utils.InternalServerError(c, "Impossible de charger les examens: "+err.Error())
		return
	}

	utils.Success(c, "Examens chargés", examens)
}

// PrescrireExamenRequest represents the request body for prescribing an exam.
type PrescrireExamenRequest struct {
	ConsultationID string `json:"consultation_id" binding:"required"`
	MedecinID      string `json:"medecin_id"`
	TypeExamen     string `json:"type_examen" binding:"required"`
}

// Prescrire creates an exam in the "prescrit" state, attached to an existing
// consultation. The prescribing doctor defaults to the authenticated user
// when not supplied (an admin may prescribe on a doctor's behalf).
func (h *ExamenHandler) Prescrire(c *gin.Context) {
	var req PrescrireExamenRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var consultation models.Consultation
	if err := h.DB.First(&consultation, "id = ?", req.ConsultationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Consultation non trouvée")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	medecinID := req.MedecinID
	if medecinID == "" {
		userID, exists := middleware.GetUserIDFromContext(c)
		if !exists {
			utils.Unauthorized(c, "Utilisateur non authentifié")
			return
		}
		medecinID = userID
	}

	var medecin models.Utilisateur
	if err := h.DB.First(&medecin, "id = ?", medecinID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Médecin non trouvé")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	examen := models.Examen{
		ConsultationID: req.ConsultationID,
		MedecinID:      medecinID,
		TypeExamen:     req.TypeExamen,
		Statut:         models.ExamenPrescrit,
	}

	if err := h.DB.Create(&examen).Error; err != nil {
		utils.InternalServerError(c, "Impossible de prescrire l'examen: "+err.Error())
		return
	}

	utils.Created(c, "Examen prescrit", examen)
}

// ModifierExamenRequest is the whitelist of mutable prescription fields.
type ModifierExamenRequest struct {
	TypeExamen *string `json:"type_examen"`
}

// Modifier updates a prescription.
func (h *ExamenHandler) Modifier(c *gin.Context) {
	var req ModifierExamenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Requête invalide: "+err.Error())
		return
	}

	var examen models.Examen
	if err := h.DB.First(&examen, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Examen non trouvé")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if req.TypeExamen != nil {
		examen.TypeExamen = *req.TypeExamen
	}

	if err := h.DB.Save(&examen).Error; err != nil {
		utils.InternalServerError(c, "Impossible de modifier l'examen: "+err.Error())
		return
	}

	utils.Success(c, "Examen modifié", examen)
}

// Supprimer deletes an exam and all of its results.
func (h *ExamenHandler) Supprimer(c *gin.Context) {
	var examen models.Examen
	if err := h.DB.First(&examen, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Examen non trouvé")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	// Delete results in the same transaction so the cascade does not depend
	// on database-level foreign key enforcement.
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("examen_id = ?", examen.ID).Delete(&models.ResultatExamen{}).Error; err != nil {
			return err
		}
		return tx.Delete(&examen).Error
	})
	if err != nil {
		utils.InternalServerError(c, "Impossible de supprimer l'examen: "+err.Error())
		return
	}

	utils.Success(c, "Examen et résultats supprimés", nil)
}

// GetByID returns one exam with its results.
func (h *ExamenHandler) GetByID(c *gin.Context) {
	var examen models.Examen
	if err := h.DB.Preload("Resultats").First(&examen, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Examen non trouvé")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Examen chargé", examen)
}

// ResultatInput is one measured parameter submitted by the lab.
type ResultatInput struct {
	Parametre           string `json:"parametre" binding:"required"`
	Valeur              string `json:"valeur"`
	Unite               string `json:"unite"`
	IntervalleReference string `json:"intervalle_reference"`
	Observation         string `json:"observation"`
}

// SaisirResultatsRequest represents the request body replacing an exam's results.
type SaisirResultatsRequest struct {
	Resultats []ResultatInput `json:"resultats" binding:"required,min=1,dive"`
}

// SaisirResultats replaces the full result set of an exam, records the lab
// technician and moves the exam to "en_cours".
func (h *ExamenHandler) SaisirResultats(c *gin.Context) {
	var req SaisirResultatsRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var examen models.Examen
	if err := h.DB.First(&examen, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Examen non trouvé")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	laborantinID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Utilisateur non authentifié")
		return
	}

	resultats := make([]models.ResultatExamen, len(req.Resultats))
	for i, r := range req.Resultats {
		resultats[i] = models.ResultatExamen{
			ExamenID:            examen.ID,
			Parametre:           r.Parametre,
			Valeur:              r.Valeur,
			Unite:               r.Unite,
			IntervalleReference: r.IntervalleReference,
			Observation:         r.Observation,
		}
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("examen_id = ?", examen.ID).Delete(&models.ResultatExamen{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&resultats).Error; err != nil {
			return err
		}
		examen.LaborantinID = &laborantinID
		examen.Statut = models.ExamenEnCours
		return tx.Save(&examen).Error
	})
	if err != nil {
		utils.InternalServerError(c, "Impossible d'enregistrer les résultats: "+err.Error())
		return
	}

	examen.Resultats = resultats
	utils.Success(c, "Résultats enregistrés", examen)
}

// ModifierResultatRequest is the whitelist of mutable fields of one result.
type ModifierResultatRequest struct {
	Parametre           *string `json:"parametre"`
	Valeur              *string `json:"valeur"`
	Unite               *string `json:"unite"`
	IntervalleReference *string `json:"intervalle_reference"`
	Observation         *string `json:"observation"`
}

// ModifierResultat updates a single result row.
func (h *ExamenHandler) ModifierResultat(c *gin.Context) {
	var req ModifierResultatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Requête invalide: "+err.Error())
		return
	}

	var resultat models.ResultatExamen
	if err := h.DB.First(&resultat, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Résultat non trouvé")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if req.Parametre != nil {
		resultat.Parametre = *req.Parametre
	}
	if req.Valeur != nil {
		resultat.Valeur = *req.Valeur
	}
	if req.Unite != nil {
		resultat.Unite = *req.Unite
	}
	if req.IntervalleReference != nil {
		resultat.IntervalleReference = *req.IntervalleReference
	}
	if req.Observation != nil {
		resultat.Observation = *req.Observation
	}

	if err := h.DB.Save(&resultat).Error; err != nil {
		utils.InternalServerError(c, "Impossible de modifier le résultat: "+err.Error())
		return
	}

	utils.Success(c, "Résultat modifié", resultat)
}

// InterpreterRequest represents the request body for the global interpretation.
type InterpreterRequest struct {
	Interpretation string `json:"interpretation" binding:"required"`
}

// Interpreter records the doctor's global interpretation and moves the exam
// to "valide".
func (h *ExamenHandler) Interpreter(c *gin.Context) {
	var req InterpreterRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var examen models.Examen
	if err := h.DB.Preload("Resultats").First(&examen, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Examen non trouvé")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	examen.Interpretation = req.Interpretation
	examen.Statut = models.ExamenValide

	if err := h.DB.Save(&examen).Error; err != nil {
		utils.InternalServerError(c, "Impossible d'enregistrer l'interprétation: "+err.Error())
		return
	}

	utils.Success(c, "Interprétation enregistrée", examen)
}

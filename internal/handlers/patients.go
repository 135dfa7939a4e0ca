package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"carnet-medical-server/internal/models"
	"carnet-medical-server/internal/utils"
)

// PatientHandler handles patient registration requests.
type PatientHandler struct {
	DB *gorm.DB
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(db *gorm.DB) *PatientHandler {
	return &PatientHandler{DB: db}
}

// CreatePatientRequest represents the request body for registering a patient.
type CreatePatientRequest struct {
	Nom           string     `json:"nom" binding:"required"`
	Postnom       string     `json:"postnom"`
	Prenom        string     `json:"prenom"`
	Sexe          string     `json:"sexe" binding:"required"`
	DateNaissance *time.Time `json:"date_naissance" binding:"required"`
	Adresse       string     `json:"adresse"`
	NumeroDossier *string    `json:"numero_dossier"`
}

// Create registers a new patient.
func (h *PatientHandler) Create(c *gin.Context) {
	var req CreatePatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patient := models.Patient{
		Nom:           req.Nom,
		Postnom:       req.Postnom,
		Prenom:        req.Prenom,
		Sexe:          req.Sexe,
		DateNaissance: req.DateNaissance,
		Adresse:       req.Adresse,
		NumeroDossier: req.NumeroDossier,
	}

	if err := h.DB.Create(&patient).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Conflict(c, "Ce numéro de dossier est déjà utilisé")
			return
		}
		utils.InternalServerError(c, "Impossible d'enregistrer le patient: "+err.Error())
		return
	}

	utils.Created(c, "Patient enregistré", patient)
}

// GetAll lists patients, most recently registered first.
func (h *PatientHandler) GetAll(c *gin.Context) {
	var patients []models.Patient
	if err := h.DB.Order("date_enregistrement desc").Find(&patients).Error; err != nil {
		utils.InternalServerError(c, "Impossible de charger les patients: "+err.Error())
		return
	}

	utils.Success(c, "Patients chargés", patients)
}

// GetByID returns one patient.
func (h *PatientHandler) GetByID(c *gin.Context) {
	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient non trouvé")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Patient chargé", patient)
}

// UpdatePatientRequest is the explicit whitelist of mutable patient fields.
type UpdatePatientRequest struct {
	Nom           *string    `json:"nom"`
	Postnom       *string    `json:"postnom"`
	Prenom        *string    `json:"prenom"`
	Sexe          *string    `json:"sexe"`
	DateNaissance *time.Time `json:"date_naissance"`
	Adresse       *string    `json:"adresse"`
	NumeroDossier *string    `json:"numero_dossier"`
}

// Update modifies a patient record.
func (h *PatientHandler) Update(c *gin.Context) {
	var req UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Requête invalide: "+err.Error())
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient non trouvé")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if req.Nom != nil {
		patient.Nom = *req.Nom
	}
	if req.Postnom != nil {
		patient.Postnom = *req.Postnom
	}
	if req.Prenom != nil {
		patient.Prenom = *req.Prenom
	}
	if req.Sexe != nil {
		patient.Sexe = *req.Sexe
	}
	if req.DateNaissance != nil {
		patient.DateNaissance = req.DateNaissance
	}
	if req.Adresse != nil {
		patient.Adresse = *req.Adresse
	}
	if req.NumeroDossier != nil {
		patient.NumeroDossier = req.NumeroDossier
	}

	if err := h.DB.Save(&patient).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Conflict(c, "Ce numéro de dossier est déjà utilisé")
			return
		}
		utils.InternalServerError(c, "Impossible de mettre à jour le patient: "+err.Error())
		return
	}

	utils.Success(c, "Patient mis à jour", patient)
}

// Delete removes a patient record.
func (h *PatientHandler) Delete(c *gin.Context) {
	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient non trouvé")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if err := h.DB.Delete(&patient).Error; err != nil {
		utils.InternalServerError(c, "Impossible de supprimer le patient: "+err.Error())
		return
	}

	utils.Success(c, "Patient supprimé", nil)
}

package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"carnet-medical-server/internal/models"
	"carnet-medical-server/internal/utils"
)

// ConsultationHandler owns the consultation lifecycle: creation with
// existence checks, joined reads, whitelisted updates, the status state
// machine and the dashboard aggregation.
type ConsultationHandler struct {
	DB *gorm.DB
}

// NewConsultationHandler creates a new ConsultationHandler.
func NewConsultationHandler(db *gorm.DB) *ConsultationHandler {
	return &ConsultationHandler{DB: db}
}

// CreateConsultationRequest represents the request body for opening a consultation.
type CreateConsultationRequest struct {
	PatientID        string     `json:"patient_id" binding:"required"`
	MedecinID        string     `json:"medecin_id" binding:"required"`
	Motif            string     `json:"motif"`
	Diagnostic       string     `json:"diagnostic"`
	Traitement       string     `json:"traitement"`
	DateConsultation *time.Time `json:"date_consultation"`

	TensionArterielle     string `json:"tension_arterielle"`
	Pouls                 string `json:"pouls"`
	FrequenceRespiratoire string `json:"frequence_respiratoire"`
	Poids                 string `json:"poids"`
	Taille                string `json:"taille"`
	Temperature           string `json:"temperature"`
	Glycemie              string `json:"glycemie"`

	ObservationsInitiales string `json:"observations_initiales"`
	ExamensPrescrits      string `json:"examens_prescrits"`
	ResultatsExamens      string `json:"resultats_examens"`
	ObservationsMedecin   string `json:"observations_medecin"`
	Orientation           string `json:"orientation"`
	EtatPatient           string `json:"etat_patient"`
}

// Create opens a consultation in the "ouverte" state. Both referenced rows
// must exist; only existence of the medecin is checked, not its role,
// matching the historical behavior of the system.
func (h *ConsultationHandler) Create(c *gin.Context) {
	var req CreateConsultationRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", req.PatientID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient non trouvé")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var medecin models.Utilisateur
	if err := h.DB.First(&medecin, "id = ?", req.MedecinID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Médecin non trouvé")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	dateConsultation := req.DateConsultation
	if dateConsultation == nil {
		now := time.Now()
		dateConsultation = &now
	}

	consultation := models.Consultation{
		PatientID:             req.PatientID,
		MedecinID:             req.MedecinID,
		Motif:                 req.Motif,
		Diagnostic:            req.Diagnostic,
		Traitement:            req.Traitement,
		DateConsultation:      dateConsultation,
		TensionArterielle:     req.TensionArterielle,
		Pouls:                 req.Pouls,
		FrequenceRespiratoire: req.FrequenceRespiratoire,
		Poids:                 req.Poids,
		Taille:                req.Taille,
		Temperature:           req.Temperature,
		Glycemie:              req.Glycemie,
		ObservationsInitiales: req.ObservationsInitiales,
		ExamensPrescrits:      req.ExamensPrescrits,
		ResultatsExamens:      req.ResultatsExamens,
		ObservationsMedecin:   req.ObservationsMedecin,
		Orientation:           req.Orientation,
		EtatPatient:           req.EtatPatient,
		Statut:                models.ConsultationOuverte,
	}

	if err := h.DB.Create(&consultation).Error; err != nil {
		utils.InternalServerError(c, "Impossible de créer la consultation: "+err.Error())
		return
	}

	utils.Created(c, "Consultation créée", consultation)
}

// detail loads the joined shape for one consultation already fetched with
// Patient, Medecin and Examens preloaded.
func consultationDetail(consultation models.Consultation) models.ConsultationDetail {
	examens := consultation.Examens
	if examens == nil {
		examens = []models.Examen{}
	}
	return models.ConsultationDetail{
		Consultation: consultation,
		Patient:      consultation.Patient.Summary(),
		Medecin:      consultation.Medecin.Summary(),
		Examens:      examens,
	}
}

// GetAll lists consultations, optionally filtered by exact statut, most
// recent date_consultation first, each joined with patient and doctor
// summaries and prescribed exams.
func (h *ConsultationHandler) GetAll(c *gin.Context) {
	query := h.DB.
		Preload("Patient").
		Preload("Medecin").
		Preload("Examens").
		Preload("Examens.Resultats").
		Order("date_consultation desc")

	if statut := c.Query("statut"); statut != "" {
		query = query.Where("statut = ?", statut)
	}

	var consultations []models.Consultation
	if err := query.Find(&consultations).Error; err != nil {
		utils.InternalServerError(c, "Impossible de charger les consultations: "+err.Error())
		return
	}

	details := make([]models.ConsultationDetail, len(consultations))
	for i, consultation := range consultations {
		details[i] = consultationDetail(consultation)
	}

	utils.Success(c, "Consultations chargées", details)
}

// GetByID returns one consultation in the joined shape.
func (h *ConsultationHandler) GetByID(c *gin.Context) {
	var consultation models.Consultation
	if err := h.DB.
		Preload("Patient").
		Preload("Medecin").
		Preload("Examens").
		Preload("Examens.Resultats").
		First(&consultation, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Consultation non trouvée")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Consultation chargée", consultationDetail(consultation))
}

// UpdateConsultationRequest is the explicit whitelist of mutable clinical
// fields. Statut changes go through ChangeStatut only, and the patient and
// doctor references are fixed at creation.
type UpdateConsultationRequest struct {
	Motif            *string    `json:"motif"`
	Diagnostic       *string    `json:"diagnostic"`
	Traitement       *string    `json:"traitement"`
	DateConsultation *time.Time `json:"date_consultation"`

	TensionArterielle     *string `json:"tension_arterielle"`
	Pouls                 *string `json:"pouls"`
	FrequenceRespiratoire *string `json:"frequence_respiratoire"`
	Poids                 *string `json:"poids"`
	Taille                *string `json:"taille"`
	Temperature           *string `json:"temperature"`
	Glycemie              *string `json:"glycemie"`

	ObservationsInitiales *string `json:"observations_initiales"`
	ExamensPrescrits      *string `json:"examens_prescrits"`
	ResultatsExamens      *string `json:"resultats_examens"`
	ObservationsMedecin   *string `json:"observations_medecin"`
	Orientation           *string `json:"orientation"`
	EtatPatient           *string `json:"etat_patient"`
}

func (req *UpdateConsultationRequest) apply(consultation *models.Consultation) {
	if req.Motif != nil {
		consultation.Motif = *req.Motif
	}
	if req.Diagnostic != nil {
		consultation.Diagnostic = *req.Diagnostic
	}
	if req.Traitement != nil {
		consultation.Traitement = *req.Traitement
	}
	if req.DateConsultation != nil {
		consultation.DateConsultation = req.DateConsultation
	}
	if req.TensionArterielle != nil {
		consultation.TensionArterielle = *req.TensionArterielle
	}
	if req.Pouls != nil {
		consultation.Pouls = *req.Pouls
	}
	if req.FrequenceRespiratoire != nil {
		consultation.FrequenceRespiratoire = *req.FrequenceRespiratoire
	}
	if req.Poids != nil {
		consultation.Poids = *req.Poids
	}
	if req.Taille != nil {
		consultation.Taille = *req.Taille
	}
	if req.Temperature != nil {
		consultation.Temperature = *req.Temperature
	}
	if req.Glycemie != nil {
		consultation.Glycemie = *req.Glycemie
	}
	if req.ObservationsInitiales != nil {
		consultation.ObservationsInitiales = *req.ObservationsInitiales
	}
	if req.ExamensPrescrits != nil {
		consultation.ExamensPrescrits = *req.ExamensPrescrits
	}
	if req.ResultatsExamens != nil {
		consultation.ResultatsExamens = *req.ResultatsExamens
	}
	if req.ObservationsMedecin != nil {
		consultation.ObservationsMedecin = *req.ObservationsMedecin
	}
	if req.Orientation != nil {
		consultation.Orientation = *req.Orientation
	}
	if req.EtatPatient != nil {
		consultation.EtatPatient = *req.EtatPatient
	}
}

// Update merges the supplied clinical fields into the consultation and
// returns the joined shape.
func (h *ConsultationHandler) Update(c *gin.Context) {
	var req UpdateConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Requête invalide: "+err.Error())
		return
	}

	var consultation models.Consultation
	if err := h.DB.First(&consultation, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Consultation non trouvée")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	req.apply(&consultation)

	if err := h.DB.Save(&consultation).Error; err != nil {
		utils.InternalServerError(c, "Impossible de mettre à jour la consultation: "+err.Error())
		return
	}

	var updated models.Consultation
	if err := h.DB.
		Preload("Patient").
		Preload("Medecin").
		Preload("Examens").
		Preload("Examens.Resultats").
		First(&updated, "id = ?", consultation.ID).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	utils.Success(c, "Consultation mise à jour", consultationDetail(updated))
}

// ChangeStatutRequest represents the request body for a status transition.
type ChangeStatutRequest struct {
	Statut string `json:"statut" binding:"required"`
}

// ChangeStatut applies a status transition. Any state is reachable from any
// state; transitioning to "cloturee" stamps date_consultation when unset.
func (h *ConsultationHandler) ChangeStatut(c *gin.Context) {
	var req ChangeStatutRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	statut := models.ConsultationStatut(req.Statut)
	if !models.ValidConsultationStatut(statut) {
		utils.BadRequest(c, "Statut invalide")
		return
	}

	var consultation models.Consultation
	if err := h.DB.First(&consultation, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Consultation non trouvée")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	consultation.ApplyStatut(statut, time.Now())

	if err := h.DB.Save(&consultation).Error; err != nil {
		utils.InternalServerError(c, "Impossible de changer le statut: "+err.Error())
		return
	}

	utils.Success(c, "Statut changé en "+req.Statut, consultation)
}

// MedecinConsultationCount is one row of the per-doctor dashboard breakdown.
type MedecinConsultationCount struct {
	MedecinID string                `json:"medecin_id"`
	Medecin   models.MedecinSummary `json:"medecin"`
	Total     int64                 `json:"total"`
}

// ConsultationDashboard aggregates consultation counts.
type ConsultationDashboard struct {
	Total      int64                      `json:"total"`
	Ouvertes   int64                      `json:"ouvertes"`
	EnCours    int64                      `json:"enCours"`
	Cloturees  int64                      `json:"cloturees"`
	ParMedecin []MedecinConsultationCount `json:"parMedecin"`
}

// Dashboard returns the total, per-statut and per-doctor consultation counts.
func (h *ConsultationHandler) Dashboard(c *gin.Context) {
	var dash ConsultationDashboard

	counts := []struct {
		dest   *int64
		statut models.ConsultationStatut
	}{
		{&dash.Ouvertes, models.ConsultationOuverte},
		{&dash.EnCours, models.ConsultationEnCours},
		{&dash.Cloturees, models.ConsultationCloturee},
	}

	if err := h.DB.Model(&models.Consultation{}).Count(&dash.Total).Error; err != nil {
		utils.InternalServerError(c, "Erreur dashboard: "+err.Error())
		return
	}
	for _, cnt := range counts {
		if err := h.DB.Model(&models.Consultation{}).Where("statut = ?", cnt.statut).Count(cnt.dest).Error; err != nil {
			utils.InternalServerError(c, "Erreur dashboard: "+err.Error())
			return
		}
	}

	type medecinRow struct {
		MedecinID string
		Noms      string
		Email     string
		Total     int64
	}
	// LEFT JOIN keeps consultations whose medecin row was deleted, so the
	// per-medecin breakdown still sums to the total.
	var rows []medecinRow
	if err := h.DB.Model(&models.Consultation{}).
		Select("consultations.medecin_id, coalesce(utilisateurs.noms, '') as noms, coalesce(utilisateurs.email, '') as email, count(consultations.id) as total").
		Joins("LEFT JOIN utilisateurs ON utilisateurs.id = consultations.medecin_id").
		Group("consultations.medecin_id, utilisateurs.noms, utilisateurs.email").
		Scan(&rows).Error; err != nil {
		utils.InternalServerError(c, "Erreur dashboard: "+err.Error())
		return
	}

	dash.ParMedecin = make([]MedecinConsultationCount, len(rows))
	for i, row := range rows {
		dash.ParMedecin[i] = MedecinConsultationCount{
			MedecinID: row.MedecinID,
			Medecin:   models.MedecinSummary{ID: row.MedecinID, Noms: row.Noms, Email: row.Email},
			Total:     row.Total,
		}
	}

	utils.Success(c, "Dashboard consultations", dash)
}

package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"carnet-medical-server/internal/config"
	"carnet-medical-server/internal/middleware"
	"carnet-medical-server/internal/models"
	"carnet-medical-server/internal/utils"
)

// UtilisateurHandler handles staff administration requests.
type UtilisateurHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

// NewUtilisateurHandler creates a new UtilisateurHandler.
func NewUtilisateurHandler(db *gorm.DB, cfg *config.Config) *UtilisateurHandler {
	return &UtilisateurHandler{DB: db, Cfg: cfg}
}

// GetAll handles fetching all staff accounts (admin).
func (h *UtilisateurHandler) GetAll(c *gin.Context) {
	var users []models.Utilisateur
	if err := h.DB.Order("date_creation desc").Find(&users).Error; err != nil {
		utils.InternalServerError(c, "Impossible de charger les utilisateurs: "+err.Error())
		return
	}

	sanitized := make([]models.UtilisateurSanitized, len(users))
	for i, u := range users {
		sanitized[i] = u.Sanitize()
	}

	utils.Success(c, "Utilisateurs chargés", sanitized)
}

// CreateUtilisateurRequest represents the fields accepted when creating a staff account.
// noms, email, mot_de_passe and role are required; everything else is optional.
type CreateUtilisateurRequest struct {
	Noms        string `form:"noms" json:"noms" binding:"required"`
	Matricule   string `form:"matricule" json:"matricule"`
	Grade       string `form:"grade" json:"grade"`
	Fonction    string `form:"fonction" json:"fonction"`
	Service     string `form:"service" json:"service"`
	Email       string `form:"email" json:"email" binding:"required,email"`
	MotDePasse  string `form:"mot_de_passe" json:"mot_de_passe" binding:"required,min=6"`
	Role        string `form:"role" json:"role" binding:"required,oneof=admin medecin receptionniste laborantin"`
	Observation string `form:"observation" json:"observation"`
	Statut      string `form:"statut" json:"statut" binding:"omitempty,oneof=actif inactif"`
}

// Create handles creating a staff account (admin). Accepts multipart form
// with an optional "photo" file, or a plain JSON body.
func (h *UtilisateurHandler) Create(c *gin.Context) {
	var req CreateUtilisateurRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, "Champs requis manquants: "+err.Error())
		return
	}

	user := models.Utilisateur{
		Noms:        req.Noms,
		Matricule:   req.Matricule,
		Grade:       req.Grade,
		Fonction:    req.Fonction,
		Service:     req.Service,
		Email:       req.Email,
		Role:        models.Role(req.Role),
		Observation: req.Observation,
		Statut:      req.Statut,
	}
	if user.Statut == "" {
		user.Statut = models.StatutActif
	}

	if err := user.SetPassword(req.MotDePasse); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}

	if file, err := c.FormFile("photo"); err == nil {
		photoURL, err := utils.SavePhoto(c, file, h.Cfg.UploadDir)
		if err != nil {
			utils.InternalServerError(c, "Impossible d'enregistrer la photo: "+err.Error())
			return
		}
		user.Photo = photoURL
	}

	if err := h.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Conflict(c, "Cet email est déjà utilisé")
			return
		}
		utils.InternalServerError(c, "Impossible de créer l'utilisateur: "+err.Error())
		return
	}

	utils.Created(c, "Utilisateur créé", user.Sanitize())
}

// UpdateUtilisateurRequest is the explicit whitelist of mutable staff fields.
// Password changes go through ChangePassword or ResetPassword, never here.
type UpdateUtilisateurRequest struct {
	Noms        *string `form:"noms" json:"noms"`
	Matricule   *string `form:"matricule" json:"matricule"`
	Grade       *string `form:"grade" json:"grade"`
	Fonction    *string `form:"fonction" json:"fonction"`
	Service     *string `form:"service" json:"service"`
	Email       *string `form:"email" json:"email" binding:"omitempty,email"`
	Role        *string `form:"role" json:"role" binding:"omitempty,oneof=admin medecin receptionniste laborantin"`
	Observation *string `form:"observation" json:"observation"`
	Statut      *string `form:"statut" json:"statut" binding:"omitempty,oneof=actif inactif"`
}

func (req *UpdateUtilisateurRequest) apply(user *models.Utilisateur) {
	if req.Noms != nil {
		user.Noms = *req.Noms
	}
	if req.Matricule != nil {
		user.Matricule = *req.Matricule
	}
	if req.Grade != nil {
		user.Grade = *req.Grade
	}
	if req.Fonction != nil {
		user.Fonction = *req.Fonction
	}
	if req.Service != nil {
		user.Service = *req.Service
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		user.Role = models.Role(*req.Role)
	}
	if req.Observation != nil {
		user.Observation = *req.Observation
	}
	if req.Statut != nil {
		user.Statut = *req.Statut
	}
}

// Update handles modifying a staff account (admin).
func (h *UtilisateurHandler) Update(c *gin.Context) {
	var req UpdateUtilisateurRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, "Requête invalide: "+err.Error())
		return
	}

	var user models.Utilisateur
	if err := h.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Utilisateur non trouvé")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	req.apply(&user)

	if file, err := c.FormFile("photo"); err == nil {
		photoURL, err := utils.SavePhoto(c, file, h.Cfg.UploadDir)
		if err != nil {
			utils.InternalServerError(c, "Impossible d'enregistrer la photo: "+err.Error())
			return
		}
		user.Photo = photoURL
	}

	if err := h.DB.Save(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Conflict(c, "Cet email est déjà utilisé")
			return
		}
		utils.InternalServerError(c, "Impossible de mettre à jour l'utilisateur: "+err.Error())
		return
	}

	utils.Success(c, "Utilisateur mis à jour", user.Sanitize())
}

// Delete handles removing a staff account (admin).
func (h *UtilisateurHandler) Delete(c *gin.Context) {
	var user models.Utilisateur
	if err := h.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Utilisateur non trouvé")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if err := h.DB.Delete(&user).Error; err != nil {
		utils.InternalServerError(c, "Impossible de supprimer l'utilisateur: "+err.Error())
		return
	}

	utils.Success(c, "Utilisateur supprimé", nil)
}

// GetProfile returns the authenticated user's own profile, without the password hash.
func (h *UtilisateurHandler) GetProfile(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Utilisateur non authentifié")
		return
	}

	var user models.Utilisateur
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Utilisateur non trouvé")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Profil chargé", user.Sanitize())
}

// UpdateProfileRequest is the whitelist of self-service profile fields.
// Role and statut are deliberately absent: staff cannot promote themselves.
type UpdateProfileRequest struct {
	Noms      *string `json:"noms"`
	Matricule *string `json:"matricule"`
	Grade     *string `json:"grade"`
	Fonction  *string `json:"fonction"`
	Service   *string `json:"service"`
}

// UpdateProfile handles a user modifying their own profile.
func (h *UtilisateurHandler) UpdateProfile(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Utilisateur non authentifié")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Requête invalide: "+err.Error())
		return
	}

	var user models.Utilisateur
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Utilisateur non trouvé")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if req.Noms != nil {
		user.Noms = *req.Noms
	}
	if req.Matricule != nil {
		user.Matricule = *req.Matricule
	}
	if req.Grade != nil {
		user.Grade = *req.Grade
	}
	if req.Fonction != nil {
		user.Fonction = *req.Fonction
	}
	if req.Service != nil {
		user.Service = *req.Service
	}

	if err := h.DB.Save(&user).Error; err != nil {
		utils.InternalServerError(c, "Impossible de mettre à jour le profil: "+err.Error())
		return
	}

	utils.Success(c, "Profil mis à jour", user.Sanitize())
}

// ChangePasswordRequest represents the request body for a self-service password change.
type ChangePasswordRequest struct {
	AncienMdp  string `json:"ancien_mdp" binding:"required"`
	NouveauMdp string `json:"nouveau_mdp" binding:"required,min=6"`
}

// ChangePassword verifies the old password before accepting the new one.
func (h *UtilisateurHandler) ChangePassword(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Utilisateur non authentifié")
		return
	}

	var req ChangePasswordRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var user models.Utilisateur
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Utilisateur non trouvé")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if !user.CheckPassword(req.AncienMdp) {
		utils.BadRequest(c, "Ancien mot de passe incorrect")
		return
	}

	if err := user.SetPassword(req.NouveauMdp); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}

	if err := h.DB.Save(&user).Error; err != nil {
		utils.InternalServerError(c, "Impossible de modifier le mot de passe: "+err.Error())
		return
	}

	utils.Success(c, "Mot de passe mis à jour", nil)
}

// ResetPasswordRequest represents the request body for an admin password reset.
type ResetPasswordRequest struct {
	MotDePasse string `json:"mot_de_passe"`
}

// defaultResetPassword is used when the admin does not supply one.
const defaultResetPassword = "123456"

// ResetPassword (admin) sets a caller-supplied or default password and
// returns the plaintext once. Operational necessity for a clinic desk with
// no staff e-mail flow; the transport is assumed trusted and audited.
func (h *UtilisateurHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Requête invalide: "+err.Error())
		return
	}

	var user models.Utilisateur
	if err := h.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Utilisateur non trouvé")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	newPassword := req.MotDePasse
	if newPassword == "" {
		newPassword = defaultResetPassword
	}

	if err := user.SetPassword(newPassword); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}

	if err := h.DB.Save(&user).Error; err != nil {
		utils.InternalServerError(c, "Impossible de réinitialiser le mot de passe: "+err.Error())
		return
	}

	utils.Success(c, "Mot de passe réinitialisé pour "+user.Email, gin.H{
		"newPassword": newPassword,
	})
}

// UtilisateurDashboard aggregates staff counts by role and statut.
type UtilisateurDashboard struct {
	Total    int64            `json:"total"`
	Actifs   int64            `json:"actifs"`
	Inactifs int64            `json:"inactifs"`
	ParRole  map[string]int64 `json:"parRole"`
}

// Dashboard returns grouped staff counts (admin).
func (h *UtilisateurHandler) Dashboard(c *gin.Context) {
	var dash UtilisateurDashboard

	if err := h.DB.Model(&models.Utilisateur{}).Count(&dash.Total).Error; err != nil {
		utils.InternalServerError(c, "Erreur dashboard: "+err.Error())
		return
	}
	if err := h.DB.Model(&models.Utilisateur{}).Where("statut = ?", models.StatutActif).Count(&dash.Actifs).Error; err != nil {
		utils.InternalServerError(c, "Erreur dashboard: "+err.Error())
		return
	}
	if err := h.DB.Model(&models.Utilisateur{}).Where("statut = ?", models.StatutInactif).Count(&dash.Inactifs).Error; err != nil {
		utils.InternalServerError(c, "Erreur dashboard: "+err.Error())
		return
	}

	type roleCount struct {
		Role  string
		Total int64
	}
	var rows []roleCount
	if err := h.DB.Model(&models.Utilisateur{}).
		Select("role, count(*) as total").
		Group("role").
		Scan(&rows).Error; err != nil {
		utils.InternalServerError(c, "Erreur dashboard: "+err.Error())
		return
	}

	dash.ParRole = make(map[string]int64, len(rows))
	for _, r := range rows {
		dash.ParRole[r.Role] = r.Total
	}

	utils.Success(c, "Dashboard utilisateurs", dash)
}

package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role enum for staff accounts
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleMedecin        Role = "medecin"
	RoleReceptionniste Role = "receptionniste"
	RoleLaborantin     Role = "laborantin"
)

// Statut values for a staff account
const (
	StatutActif   = "actif"
	StatutInactif = "inactif"
)

// Utilisateur represents a staff account (admin, doctor, receptionist, lab technician).
type Utilisateur struct {
	BaseModel
	Noms         string    `gorm:"size:150;not null" json:"noms"`
	Matricule    string    `gorm:"size:50" json:"matricule,omitempty"`
	Grade        string    `gorm:"size:100" json:"grade,omitempty"`
	Fonction     string    `gorm:"size:100" json:"fonction,omitempty"`
	Service      string    `gorm:"size:100" json:"service,omitempty"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	MotDePasse   string    `gorm:"size:255;not null" json:"-"` // Never send password hash in JSON
	Role         Role      `gorm:"size:20;not null" json:"role"`
	Photo        string    `gorm:"size:255" json:"photo,omitempty"`
	Observation  string    `gorm:"type:text" json:"observation,omitempty"`
	Statut       string    `gorm:"size:20;default:'actif'" json:"statut"`
	DateCreation time.Time `gorm:"autoCreateTime" json:"date_creation"`

	// Relations (not always preloaded)
	RefreshTokens    []RefreshToken `gorm:"foreignKey:UtilisateurID" json:"-"`
	Consultations    []Consultation `gorm:"foreignKey:MedecinID" json:"-"`
	ExamensPrescrits []Examen       `gorm:"foreignKey:MedecinID" json:"-"`
	ExamensTraites   []Examen       `gorm:"foreignKey:LaborantinID" json:"-"`
}

// UtilisateurSanitized is the staff account data safe to send in API responses.
type UtilisateurSanitized struct {
	ID           string    `json:"id"`
	Noms         string    `json:"noms"`
	Matricule    string    `json:"matricule,omitempty"`
	Grade        string    `json:"grade,omitempty"`
	Fonction     string    `json:"fonction,omitempty"`
	Service      string    `json:"service,omitempty"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Photo        string    `json:"photo,omitempty"`
	Observation  string    `json:"observation,omitempty"`
	Statut       string    `json:"statut"`
	DateCreation time.Time `json:"date_creation"`
}

// MedecinSummary is the doctor projection joined into consultation and examen payloads.
type MedecinSummary struct {
	ID    string `json:"id"`
	Noms  string `json:"noms"`
	Email string `json:"email"`
}

// SetPassword hashes a password and sets it on the user
func (u *Utilisateur) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.MotDePasse = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the stored bcrypt hash
func (u *Utilisateur) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.MotDePasse), []byte(password))
	return err == nil
}

// Sanitize strips sensitive data from an Utilisateur for API responses.
func (u *Utilisateur) Sanitize() UtilisateurSanitized {
	return UtilisateurSanitized{
		ID:           u.ID,
		Noms:         u.Noms,
		Matricule:    u.Matricule,
		Grade:        u.Grade,
		Fonction:     u.Fonction,
		Service:      u.Service,
		Email:        u.Email,
		Role:         u.Role,
		Photo:        u.Photo,
		Observation:  u.Observation,
		Statut:       u.Statut,
		DateCreation: u.DateCreation,
	}
}

// Summary returns the doctor projection used by consultation and examen joins.
func (u *Utilisateur) Summary() MedecinSummary {
	return MedecinSummary{ID: u.ID, Noms: u.Noms, Email: u.Email}
}

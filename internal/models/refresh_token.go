package models

import "time"

// RefreshToken stores an issued refresh token so it can be rotated and revoked.
type RefreshToken struct {
	BaseModel
	UtilisateurID string    `gorm:"size:36;index;not null" json:"utilisateurId"`
	Token         string    `gorm:"size:512;uniqueIndex;not null" json:"-"`
	ExpiresAt     time.Time `json:"expiresAt"`
	IsRevoked     bool      `gorm:"default:false" json:"isRevoked"`

	Utilisateur Utilisateur `gorm:"foreignKey:UtilisateurID" json:"-"`
}

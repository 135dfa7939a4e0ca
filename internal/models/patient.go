package models

import "time"

// Patient represents a registered patient. Consultations reference it but never mutate it.
type Patient struct {
	BaseModel
	Nom                string     `gorm:"size:100;not null" json:"nom"`
	Postnom            string     `gorm:"size:100" json:"postnom,omitempty"`
	Prenom             string     `gorm:"size:100" json:"prenom,omitempty"`
	Sexe               string     `gorm:"size:10;not null" json:"sexe"`
	DateNaissance      *time.Time `json:"date_naissance,omitempty"`
	Adresse            string     `gorm:"type:text" json:"adresse,omitempty"`
	// Pointer so absent dossier numbers stay NULL and do not collide on the unique index.
	NumeroDossier      *string    `gorm:"size:50;uniqueIndex" json:"numero_dossier,omitempty"`
	DateEnregistrement time.Time  `gorm:"autoCreateTime" json:"date_enregistrement"`
}

// PatientSummary is the patient projection joined into consultation payloads.
type PatientSummary struct {
	ID     string `json:"id"`
	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`
}

// Summary returns the patient projection used by consultation joins.
func (p *Patient) Summary() PatientSummary {
	return PatientSummary{ID: p.ID, Nom: p.Nom, Prenom: p.Prenom}
}

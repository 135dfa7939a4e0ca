package models

import "time"

// ExamenStatut represents the lifecycle state of a lab exam
type ExamenStatut string

const (
	ExamenPrescrit ExamenStatut = "prescrit"
	ExamenEnCours  ExamenStatut = "en_cours"
	ExamenValide   ExamenStatut = "valide"
)

// Examen is a lab test prescribed around a consultation. It moves from
// "prescrit" (created by a doctor) to "en_cours" (results entered by a lab
// technician) to "valide" (global interpretation added by a doctor).
type Examen struct {
	BaseModel
	ConsultationID string  `gorm:"size:36;index;not null" json:"consultation_id"`
	MedecinID      string  `gorm:"size:36;index;not null" json:"medecin_id"`
	LaborantinID   *string `gorm:"size:36;index" json:"laborantin_id,omitempty"`

	TypeExamen       string       `gorm:"size:150;not null" json:"type_examen"`
	Statut           ExamenStatut `gorm:"size:20;default:'prescrit'" json:"statut"`
	Interpretation   string       `gorm:"type:text" json:"interpretation,omitempty"`
	DatePrescription time.Time    `gorm:"autoCreateTime" json:"date_prescription"`

	// Relations; deleting an examen deletes its resultats
	Consultation Consultation     `gorm:"foreignKey:ConsultationID" json:"-"`
	Medecin      Utilisateur      `gorm:"foreignKey:MedecinID" json:"-"`
	Laborantin   *Utilisateur     `gorm:"foreignKey:LaborantinID" json:"-"`
	Resultats    []ResultatExamen `gorm:"foreignKey:ExamenID;constraint:OnDelete:CASCADE" json:"resultats,omitempty"`
}

// ResultatExamen is one measured parameter of an exam.
type ResultatExamen struct {
	BaseModel
	ExamenID            string `gorm:"size:36;index;not null" json:"examen_id"`
	Parametre           string `gorm:"size:150;not null" json:"parametre"`
	Valeur              string `gorm:"size:150" json:"valeur"`
	Unite               string `gorm:"size:50" json:"unite,omitempty"`
	IntervalleReference string `gorm:"size:100" json:"intervalle_reference,omitempty"`
	Observation         string `gorm:"type:text" json:"observation,omitempty"`
}

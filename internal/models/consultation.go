package models

import "time"

// ConsultationStatut represents the lifecycle state of a consultation
type ConsultationStatut string

const (
	ConsultationOuverte  ConsultationStatut = "ouverte"
	ConsultationEnCours  ConsultationStatut = "en_cours"
	ConsultationCloturee ConsultationStatut = "cloturee"
)

// ValidConsultationStatut reports whether s is one of the known lifecycle states.
func ValidConsultationStatut(s ConsultationStatut) bool {
	switch s {
	case ConsultationOuverte, ConsultationEnCours, ConsultationCloturee:
		return true
	}
	return false
}

// Consultation is one clinical visit record linking a patient and an attending doctor.
type Consultation struct {
	BaseModel
	PatientID string `gorm:"size:36;index;not null" json:"patient_id"`
	MedecinID string `gorm:"size:36;index;not null" json:"medecin_id"`

	Motif            string     `gorm:"size:255" json:"motif,omitempty"`
	Diagnostic       string     `gorm:"type:text" json:"diagnostic,omitempty"`
	Traitement       string     `gorm:"type:text" json:"traitement,omitempty"`
	DateConsultation *time.Time `json:"date_consultation,omitempty"`

	// Vital signs, free-form as captured at the desk
	TensionArterielle     string `gorm:"size:50" json:"tension_arterielle,omitempty"`
	Pouls                 string `gorm:"size:50" json:"pouls,omitempty"`
	FrequenceRespiratoire string `gorm:"size:50" json:"frequence_respiratoire,omitempty"`
	Poids                 string `gorm:"size:50" json:"poids,omitempty"`
	Taille                string `gorm:"size:50" json:"taille,omitempty"`
	Temperature           string `gorm:"size:50" json:"temperature,omitempty"`
	Glycemie              string `gorm:"size:50" json:"glycemie,omitempty"`

	ObservationsInitiales string `gorm:"type:text" json:"observations_initiales,omitempty"`
	ExamensPrescrits      string `gorm:"type:text" json:"examens_prescrits,omitempty"`
	ResultatsExamens      string `gorm:"type:text" json:"resultats_examens,omitempty"`
	ObservationsMedecin   string `gorm:"type:text" json:"observations_medecin,omitempty"`
	Orientation           string `gorm:"size:255" json:"orientation,omitempty"`
	EtatPatient           string `gorm:"size:255" json:"etat_patient,omitempty"`

	Statut ConsultationStatut `gorm:"size:20;default:'ouverte'" json:"statut"`

	// Relations
	Patient Patient     `gorm:"foreignKey:PatientID" json:"-"`
	Medecin Utilisateur `gorm:"foreignKey:MedecinID" json:"-"`
	Examens []Examen    `gorm:"foreignKey:ConsultationID" json:"-"`
}

// ApplyStatut performs the (deliberately permissive) status transition:
// any state is reachable from any state. The single side effect is that the
// first transition to "cloturee" stamps DateConsultation when it is unset.
// Tightening the state machine later is a change to this one function.
func (c *Consultation) ApplyStatut(statut ConsultationStatut, now time.Time) {
	c.Statut = statut
	if statut == ConsultationCloturee && c.DateConsultation == nil {
		c.DateConsultation = &now
	}
}

// ConsultationDetail is the joined shape returned by list and detail endpoints.
type ConsultationDetail struct {
	Consultation
	Patient PatientSummary `json:"patient"`
	Medecin MedecinSummary `json:"medecin"`
	Examens []Examen       `json:"examens"`
}

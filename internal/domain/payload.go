package domain

// ListingPayload is the wizard payload, keyed by step domain exactly as the
// client submits it. Scalar values arrive as form strings; numeric parsing
// happens after validation. Binary uploads travel outside this structure as
// multipart parts.
type ListingPayload struct {
	InfosGenerales   InfosGeneralesPayload   `json:"informations_generales"`
	Localisation     LocalisationPayload     `json:"localisation"`
	Caracteristiques CaracteristiquesPayload `json:"caracteristiques"`
	Documents        []string                `json:"documents"`
	Accessibilite    []string                `json:"accessibilite"`
	Commodites       []string                `json:"commodites"`
	ConditionsBonus  ConditionsBonusPayload  `json:"conditions_bonus"`
	Medias           MediasPayload           `json:"medias"`
}

// InfosGeneralesPayload is step 1.
type InfosGeneralesPayload struct {
	TypeBien         string `json:"type_bien"`
	TypeOffre        string `json:"type_offre"`
	Titre            string `json:"titre"`
	Description      string `json:"description"`
	PrixBien         string `json:"prix_bien"`
	FraisVisite      string `json:"frais_visite"`
	PrixVisite       string `json:"prix_visite,omitempty"`
	Surface          string `json:"surface,omitempty"`
	StatutOccupation string `json:"statut_occupation,omitempty"`
	Meuble           string `json:"meuble,omitempty"`
	Disponibilite    string `json:"disponibilite,omitempty"`
}

// LocalisationPayload is step 2.
type LocalisationPayload struct {
	Ville    string `json:"ville"`
	Commune  string `json:"commune,omitempty"`
	Quartier string `json:"quartier"`
}

// InteriorItemPayload is one titled interior block.
type InteriorItemPayload struct {
	Titre   string `json:"titre"`
	Contenu string `json:"contenu,omitempty"`
}

// RoomPayload is one room: its name and the photo paths the caller wants to
// keep. NewPhotoCount is filled by the transport layer from the multipart
// parts named pieces_{index}_photos; it never travels as JSON.
type RoomPayload struct {
	Nom              string   `json:"nom"`
	PhotosExistantes []string `json:"photos_existantes,omitempty"`
	NewPhotoCount    int      `json:"-"`
}

// CaracteristiquesPayload is step 3 (skipped for Terrain).
type CaracteristiquesPayload struct {
	Interieures []InteriorItemPayload `json:"interieures,omitempty"`
	Exterieures []string              `json:"exterieures,omitempty"`
	Pieces      []RoomPayload         `json:"pieces,omitempty"`
}

// ConditionsBonusPayload is step 7.
type ConditionsBonusPayload struct {
	Conditions []string `json:"conditions,omitempty"`
	Bonus      []string `json:"bonus,omitempty"`
}

// MediasPayload is step 8. HasNewMainPhoto is set by the transport layer
// when a photo_principale part is present.
type MediasPayload struct {
	PhotoPrincipaleExistante string `json:"photo_principale_existante,omitempty"`
	VideoPlateforme          string `json:"video_plateforme,omitempty"`
	VideoURL                 string `json:"video_url,omitempty"`
	HasNewMainPhoto          bool   `json:"-"`
}

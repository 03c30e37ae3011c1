// Package validation is the authoritative field rule set of the listing
// wizard. The pre-submit endpoint and the persistence coordinator both call
// the same engine, so client-side and server-side checks cannot diverge.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"immoci-backend/internal/application/wizard"
	"immoci-backend/internal/domain"
)

// Error messages returned per field.
const (
	MsgRequired       = "obligatoire"
	MsgTooShort       = "trop court"
	MsgTooLong        = "trop long"
	MsgInvalid        = "valeur invalide"
	MsgForbiddenChars = "caracteres non autorises"
	MsgNotNumeric     = "valeur numerique attendue"
	MsgMotifTooShort  = "motif trop court"
	MsgMotifTooLong   = "motif trop long"
	MsgMotifInvalid   = "motif invalide"
)

// forbiddenChars is the fixed denylist applied to every free-text field.
const forbiddenChars = "<>{}[]\\^~|`$%"

// Motif length bounds.
const (
	MotifMinLen = 10
	MotifMaxLen = 500
)

var videoURLPatterns = map[string]*regexp.Regexp{
	domain.PlatformYouTube: regexp.MustCompile(`^https?://(www\.)?(youtube\.com|youtu\.be)/.+`),
	domain.PlatformTikTok:  regexp.MustCompile(`^https?://(www\.)?tiktok\.com/.+`),
	domain.PlatformVimeo:   regexp.MustCompile(`^https?://(www\.)?vimeo\.com/.+`),
}

// Result is the outcome of a single-step check.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

// ValidateStep runs the rules of one step against the payload. Steps outside
// 1..8 have no independent fields and always pass.
func ValidateStep(step int, p *domain.ListingPayload) Result {
	errs := map[string]string{}
	typeBien := p.InfosGenerales.TypeBien
	switch step {
	case wizard.StepInfosGenerales:
		validateInfosGenerales(&p.InfosGenerales, errs)
	case wizard.StepLocalisation:
		validateLocalisation(&p.Localisation, errs)
	case wizard.StepCaracteristiques:
		validateCaracteristiques(&p.Caracteristiques, typeBien, errs)
	case wizard.StepDocuments:
		validateTextList("documents", p.Documents, errs)
	case wizard.StepAccessibilite:
		validateTextList("accessibilite", p.Accessibilite, errs)
	case wizard.StepCommodites:
		validateTextList("commodites", p.Commodites, errs)
	case wizard.StepConditionsBonus:
		validateTextList("conditions", p.ConditionsBonus.Conditions, errs)
		validateTextList("bonus", p.ConditionsBonus.Bonus, errs)
	case wizard.StepMedias:
		validateMedias(p, errs)
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// ValidateAll evaluates steps in order 1→8, skipping steps inapplicable to
// the listing type. The first failing step short-circuits the rest.
func ValidateAll(p *domain.ListingPayload) *domain.ValidationError {
	typeBien := p.InfosGenerales.TypeBien
	for step := wizard.FirstStep; step < wizard.StepRecapitulatif; step++ {
		if wizard.Skipped(step, typeBien) {
			continue
		}
		if res := ValidateStep(step, p); !res.Valid {
			return &domain.ValidationError{Step: step, Errors: res.Errors}
		}
	}
	return nil
}

// ResumeStep returns the wizard step an interrupted edit resumes at: the
// first reachable step whose payload does not validate, or the summary.
func ResumeStep(p *domain.ListingPayload) int {
	return wizard.Resume(p.InfosGenerales.TypeBien, func(step int) bool {
		return ValidateStep(step, p).Valid
	})
}

// ValidateMotif checks a deletion reason: 10-500 characters, no denylisted
// characters.
func ValidateMotif(motif string) error {
	motif = strings.TrimSpace(motif)
	if len(motif) < MotifMinLen {
		return errors.New(MsgMotifTooShort)
	}
	if len(motif) > MotifMaxLen {
		return errors.New(MsgMotifTooLong)
	}
	if strings.ContainsAny(motif, forbiddenChars) {
		return errors.New(MsgMotifInvalid)
	}
	return nil
}

func validateInfosGenerales(g *domain.InfosGeneralesPayload, errs map[string]string) {
	if g.TypeBien == "" {
		errs["type_bien"] = MsgRequired
	} else if !contains(domain.ListingTypes, g.TypeBien) {
		errs["type_bien"] = MsgInvalid
	}

	if g.TypeOffre == "" {
		errs["type_offre"] = MsgRequired
	} else if g.TypeOffre != domain.OffreLocation && g.TypeOffre != domain.OffreVente {
		errs["type_offre"] = MsgInvalid
	}

	checkText(errs, "titre", g.Titre, 10, 100, true)
	checkText(errs, "description", g.Description, 10, 2000, true)

	checkNumeric(errs, "prix_bien", g.PrixBien, true)

	switch g.FraisVisite {
	case "":
		errs["frais_visite"] = MsgRequired
	case "Oui":
		checkNumeric(errs, "prix_visite", g.PrixVisite, true)
	case "Non":
		// prix_visite ignored
	default:
		errs["frais_visite"] = MsgInvalid
	}

	terrain := g.TypeBien == domain.TypeTerrain
	checkNumeric(errs, "surface", g.Surface, terrain)

	if !terrain && g.TypeBien != "" {
		if g.StatutOccupation == "" {
			errs["statut_occupation"] = MsgRequired
		}
		if g.Meuble == "" {
			errs["meuble"] = MsgRequired
		} else if g.Meuble != "Oui" && g.Meuble != "Non" {
			errs["meuble"] = MsgInvalid
		}
		if g.Disponibilite == "" {
			errs["disponibilite"] = MsgRequired
		}
	}
}

func validateLocalisation(l *domain.LocalisationPayload, errs map[string]string) {
	checkText(errs, "ville", l.Ville, 1, 60, true)
	checkText(errs, "quartier", l.Quartier, 1, 80, true)
	// Commune is only mandatory inside Abidjan.
	abidjan := strings.EqualFold(strings.TrimSpace(l.Ville), "Abidjan")
	checkText(errs, "commune", l.Commune, 1, 60, abidjan)
}

func validateCaracteristiques(c *domain.CaracteristiquesPayload, typeBien string, errs map[string]string) {
	for i, item := range c.Interieures {
		checkText(errs, fmt.Sprintf("interieures_%d_titre", i), item.Titre, 1, 100, true)
		checkText(errs, fmt.Sprintf("interieures_%d_contenu", i), item.Contenu, 0, 2000, false)
	}
	for i, v := range c.Exterieures {
		checkText(errs, fmt.Sprintf("exterieures_%d", i), v, 1, 120, true)
	}
	if typeBien != domain.TypeTerrain {
		for i, room := range c.Pieces {
			checkText(errs, fmt.Sprintf("pieces_%d_nom", i), room.Nom, 1, 80, true)
		}
	}
}

func validateTextList(field string, values []string, errs map[string]string) {
	for i, v := range values {
		checkText(errs, fmt.Sprintf("%s_%d", field, i), v, 1, 255, true)
	}
}

func validateMedias(p *domain.ListingPayload, errs map[string]string) {
	m := &p.Medias
	if m.VideoPlateforme != "" || m.VideoURL != "" {
		re, ok := videoURLPatterns[m.VideoPlateforme]
		if !ok {
			errs["video_plateforme"] = MsgInvalid
		} else if !re.MatchString(m.VideoURL) {
			errs["video_url"] = MsgInvalid
		}
	}
	// A non-Terrain listing needs a main photo, and every one of its rooms
	// needs at least one photo; both can be satisfied either by a path kept
	// from a previous edit or by a fresh upload.
	if p.InfosGenerales.TypeBien != domain.TypeTerrain {
		if !m.HasNewMainPhoto && strings.TrimSpace(m.PhotoPrincipaleExistante) == "" {
			errs["photo_principale"] = MsgRequired
		}
		for i, room := range p.Caracteristiques.Pieces {
			if len(room.PhotosExistantes)+room.NewPhotoCount == 0 {
				errs[fmt.Sprintf("pieces_%d_photos", i)] = MsgRequired
			}
		}
	}
}

// checkText applies required/length/denylist rules to one free-text field.
func checkText(errs map[string]string, field, value string, min, max int, required bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			errs[field] = MsgRequired
		}
		return
	}
	if len(value) < min {
		errs[field] = MsgTooShort
		return
	}
	if max > 0 && len(value) > max {
		errs[field] = MsgTooLong
		return
	}
	if strings.ContainsAny(value, forbiddenChars) {
		errs[field] = MsgForbiddenChars
	}
}

// checkNumeric requires a positive numeric form value.
func checkNumeric(errs map[string]string, field, value string, required bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			errs[field] = MsgRequired
		}
		return
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil || n <= 0 {
		errs[field] = MsgNotNumeric
	}
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

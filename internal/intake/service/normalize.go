package service

import (
	"strings"

	"edpulse_backend/internal/intake/domain"
	"edpulse_backend/internal/intake/transport"
	"edpulse_backend/platform/apperr"
	"edpulse_backend/platform/phone"
	"edpulse_backend/platform/sanitize"
)

// RequestMeta carries the server-observed request context that does not come
// from the JSON body.
type RequestMeta struct {
	ForwardedFor string
	RealIP       string
	UserAgent    string
	Referrer     string
}

// normalize shapes a raw request into the canonical lead.
// Malformed interest/preference fields degrade to empty lists with a warning;
// missing required names are hard validation failures with per-field messages.
func (s *Service) normalize(req transport.SubmitRequest, meta RequestMeta, forcePartial bool) (domain.Lead, error) {
	isPartial := forcePartial || req.Partial()

	fieldErrors := map[string]string{}
	if strings.TrimSpace(req.FirstName) == "" {
		fieldErrors["firstName"] = "firstName is required"
	}
	if !isPartial && strings.TrimSpace(req.LastName) == "" {
		fieldErrors["lastName"] = "lastName is required for a final submission"
	}
	if len(fieldErrors) > 0 {
		return domain.Lead{}, apperr.Validation("validation failed").WithDetails(fieldErrors)
	}

	occupation := strings.ToUpper(strings.TrimSpace(req.Occupation))
	if occupation != "" && !domain.ValidOccupation(occupation) {
		s.log.Warn("unknown_occupation_dropped", "value", req.Occupation)
		occupation = ""
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = meta.UserAgent
	}
	referrer := req.Referrer
	if referrer == "" {
		referrer = meta.Referrer
	}

	lead := domain.Lead{
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:         phone.NormalizeE164Region(req.Phone, s.phoneRegion),
		Age:           req.Age,
		Reasons:       sanitize.Text(req.Reasons),
		Occupation:    occupation,
		Company:       strings.TrimSpace(req.Company),
		Department:    strings.TrimSpace(req.Department),
		Bio:           sanitize.Text(req.Bio),
		Interests:     s.resolveInterests(req.Interests),
		Preferences:   s.resolvePreferences(req.Preferences),
		IsPartial:     isPartial,
		LastFieldSeen: strings.TrimSpace(req.LastFieldSeen),
		TimeSpent:     req.TimeSpent,
		UserAgent:     userAgent,
		Referrer:      referrer,
		UTMSource:     strings.TrimSpace(req.UTMSource),
		UTMMedium:     strings.TrimSpace(req.UTMMedium),
		UTMCampaign:   strings.TrimSpace(req.UTMCampaign),
		IPAddress:     domain.ClientIP(meta.ForwardedFor, meta.RealIP),
	}

	return lead, nil
}

func (s *Service) resolveInterests(list transport.FlexibleStringList) []domain.InterestType {
	switch {
	case !list.Present:
		return nil
	case list.Invalid:
		s.log.Warn("interests_unparseable_defaulting_empty")
		return nil
	case list.IsArray:
		return domain.FilterInterests(list.Values)
	default:
		return domain.ParseInterests(list.Raw)
	}
}

func (s *Service) resolvePreferences(list transport.FlexibleStringList) []domain.PreferenceType {
	switch {
	case !list.Present:
		return nil
	case list.Invalid:
		s.log.Warn("preferences_unparseable_defaulting_empty")
		return nil
	case list.IsArray:
		return domain.FilterPreferences(list.Values)
	default:
		return domain.ParsePreferences(list.Raw)
	}
}

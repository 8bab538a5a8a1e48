// Package transport defines the request and response DTOs for the intake API.
package transport

import (
	"encoding/json"
)

// FlexibleStringList accepts a JSON string ("english, spanish"), an array of
// strings, or null/absent. Forms in the wild send all three. A value of an
// unexpected type marks the field invalid instead of failing the bind, so the
// pipeline can degrade to an empty list with a warning.
type FlexibleStringList struct {
	Raw     string
	Values  []string
	IsArray bool
	Present bool
	Invalid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexibleStringList) UnmarshalJSON(data []byte) error {
	f.Present = true

	if string(data) == "null" {
		f.Present = false
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		f.Raw = asString
		return nil
	}

	var asArray []string
	if err := json.Unmarshal(data, &asArray); err == nil {
		f.Values = asArray
		f.IsArray = true
		return nil
	}

	f.Invalid = true
	return nil
}

// SubmitRequest is the inbound submission body for both the full and the
// beacon partial endpoints.
type SubmitRequest struct {
	FirstName     string             `json:"firstName"`
	LastName      string             `json:"lastName"`
	Email         string             `json:"email" validate:"omitempty,email"`
	Phone         string             `json:"phone"`
	Age           *int               `json:"age" validate:"omitempty,gte=0,lte=120"`
	Reasons       string             `json:"reasons"`
	Occupation    string             `json:"occupation"`
	Company       string             `json:"company"`
	Department    string             `json:"department"`
	Bio           string             `json:"bio"`
	Interests     FlexibleStringList `json:"interests"`
	Preferences   FlexibleStringList `json:"preferences"`
	IsPartial     *bool              `json:"isPartial"`
	LastFieldSeen string             `json:"lastFieldSeen"`
	TimeSpent     int                `json:"timeSpent" validate:"omitempty,gte=0"`
	UserAgent     string             `json:"userAgent"`
	Referrer      string             `json:"referrer"`
	UTMSource     string             `json:"utmSource"`
	UTMMedium     string             `json:"utmMedium"`
	UTMCampaign   string             `json:"utmCampaign"`
}

// Partial reports the caller's isPartial signal; omitted means final submit.
func (r SubmitRequest) Partial() bool {
	return r.IsPartial != nil && *r.IsPartial
}

// SubmitResponse is returned for both submission endpoints.
type SubmitResponse struct {
	Success   bool   `json:"success"`
	VisitorID string `json:"visitorId,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

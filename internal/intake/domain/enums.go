// Package domain holds the canonical data model for the intake bounded
// context: closed enumerations, entities, and the normalization rules that
// turn raw form input into canonical values.
package domain

// InterestType enumerates the languages a visitor can express interest in.
type InterestType string

const (
	InterestEnglish    InterestType = "ENGLISH"
	InterestSpanish    InterestType = "SPANISH"
	InterestFrench     InterestType = "FRENCH"
	InterestGerman     InterestType = "GERMAN"
	InterestItalian    InterestType = "ITALIAN"
	InterestPortuguese InterestType = "PORTUGUESE"
)

// AllInterests returns the closed interest enumeration in matching order.
// Fuzzy matching is first-match-wins, so the order here is behavior, not style.
func AllInterests() []InterestType {
	return []InterestType{
		InterestEnglish,
		InterestSpanish,
		InterestFrench,
		InterestGerman,
		InterestItalian,
		InterestPortuguese,
	}
}

// PreferenceType enumerates how a visitor prefers to learn.
type PreferenceType string

const (
	PreferenceVideo       PreferenceType = "VIDEO"
	PreferenceAudio       PreferenceType = "AUDIO"
	PreferenceReading     PreferenceType = "READING"
	PreferenceLiveClasses PreferenceType = "LIVE_CLASSES"
	PreferenceOneOnOne    PreferenceType = "ONE_ON_ONE"
	PreferenceSelfPaced   PreferenceType = "SELF_PACED"
)

// AllPreferences returns the closed preference enumeration in matching order.
func AllPreferences() []PreferenceType {
	return []PreferenceType{
		PreferenceVideo,
		PreferenceAudio,
		PreferenceReading,
		PreferenceLiveClasses,
		PreferenceOneOnOne,
		PreferenceSelfPaced,
	}
}

// Occupation enumerates the visitor occupation choices from the lead form.
type Occupation string

const (
	OccupationStudent        Occupation = "STUDENT"
	OccupationEmployee       Occupation = "EMPLOYEE"
	OccupationFreelancer     Occupation = "FREELANCER"
	OccupationFreeOfFunction Occupation = "FREE_OF_FUNCTION"
)

// ValidOccupation reports whether value is a member of the occupation enum.
func ValidOccupation(value string) bool {
	switch Occupation(value) {
	case OccupationStudent, OccupationEmployee, OccupationFreelancer, OccupationFreeOfFunction:
		return true
	}
	return false
}

// SubmissionStatus classifies a form submission event.
type SubmissionStatus string

const (
	StatusPartial   SubmissionStatus = "PARTIAL"
	StatusCompleted SubmissionStatus = "COMPLETED"
)

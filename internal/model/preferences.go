package model

// Language is customer preferred language
type Language string

const (
	LanguageES Language = "es"
	LanguageEN Language = "en"
)

// Currency is customer preferred currency
type Currency string

const (
	CurrencyCOP Currency = "COP"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// Notifications holds enabled notification channels
type Notifications struct {
	Email bool `json:"email" bson:"email"`
	SMS   bool `json:"sms" bson:"sms"`
	Push  bool `json:"push" bson:"push"`
}

// Preferences is customer communication preferences
type Preferences struct {
	Language         Language      `json:"language" bson:"language"`
	Currency         Currency      `json:"currency" bson:"currency"`
	Notifications    Notifications `json:"notifications" bson:"notifications"`
	MarketingConsent bool          `json:"marketingConsent" bson:"marketingConsent"`
}

// DefaultPreferences returns preferences every new customer starts with
func DefaultPreferences() Preferences {
	return Preferences{
		Language: LanguageES,
		Currency: CurrencyCOP,
		Notifications: Notifications{
			Email: true,
			SMS:   false,
			Push:  true,
		},
		MarketingConsent: false,
	}
}

// NotificationsPatch holds notification flags which must be changed
type NotificationsPatch struct {
	Email *bool
	SMS   *bool
	Push  *bool
}

// PreferencesPatch holds preferences which must be changed
type PreferencesPatch struct {
	Language         *Language
	Currency         *Currency
	Notifications    *NotificationsPatch
	MarketingConsent *bool
}

// Overlay returns copy of preferences with provided overrides applied
func (p Preferences) Overlay(patch *PreferencesPatch) Preferences {
	if patch == nil {
		return p
	}

	if patch.Language != nil {
		p.Language = *patch.Language
	}

	if patch.Currency != nil {
		p.Currency = *patch.Currency
	}

	if n := patch.Notifications; n != nil {
		if n.Email != nil {
			p.Notifications.Email = *n.Email
		}
		if n.SMS != nil {
			p.Notifications.SMS = *n.SMS
		}
		if n.Push != nil {
			p.Notifications.Push = *n.Push
		}
	}

	if patch.MarketingConsent != nil {
		p.MarketingConsent = *patch.MarketingConsent
	}
	return p
}

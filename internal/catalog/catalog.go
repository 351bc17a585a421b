// Package catalog holds the static brand and communication-type
// catalogs the generate form is built from. Both feed template
// variables; neither is user-editable.
package catalog

type Brand struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

var brands = []Brand{
	// Norway
	{ID: "vg", Name: "VG", Country: "NO"},
	{ID: "ap", Name: "Aftenposten", Country: "NO"},
	{ID: "bt", Name: "Bergens Tidende", Country: "NO"},
	{ID: "e24", Name: "E24", Country: "NO"},
	{ID: "sa", Name: "Stavanger Aftenblad", Country: "NO"},
	// Sweden
	{ID: "ab", Name: "Aftonbladet", Country: "SE"},
	{ID: "svd", Name: "Svenska Dagbladet", Country: "SE"},
	{ID: "omni", Name: "Omni", Country: "SE"},
}

type CommunicationType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var communicationTypes = []CommunicationType{
	{ID: "winback", Name: "Winback", Description: "Re-engage churned or inactive users"},
	{ID: "holdback", Name: "Holdback", Description: "Retain users showing signs of leaving"},
	{ID: "onboarding", Name: "Onboarding", Description: "Welcome and guide new users"},
	{ID: "engagement", Name: "Engagement", Description: "Drive active user participation"},
	{ID: "upsell", Name: "Upsell", Description: "Promote premium features or upgrades"},
	{ID: "newsletter", Name: "Newsletter", Description: "Regular content updates"},
	{ID: "breaking", Name: "Breaking News", Description: "Urgent news alerts"},
	{ID: "promotional", Name: "Promotional", Description: "Special offers and campaigns"},
}

func Brands() []Brand {
	out := make([]Brand, len(brands))
	copy(out, brands)
	return out
}

func BrandByID(id string) (Brand, bool) {
	for _, b := range brands {
		if b.ID == id {
			return b, true
		}
	}
	return Brand{}, false
}

func CommunicationTypes() []CommunicationType {
	out := make([]CommunicationType, len(communicationTypes))
	copy(out, communicationTypes)
	return out
}

func CommunicationTypeByID(id string) (CommunicationType, bool) {
	for _, c := range communicationTypes {
		if c.ID == id {
			return c, true
		}
	}
	return CommunicationType{}, false
}

package extractor

import "regexp"

// Labels that end a free-form place or timezone capture.
const stopLabels = `on|valid|departure|arrival|timezone|last|limit|offset`

var (
	months = []string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}
	petroleumProducts = []string{"LPG", "ATF", "HSD", "SKO", "Naphtha", "Bitumen", "Others", "FO & LSHS"}

	airlines = []string{
		"Indigo", "GoAir", "Jet Airways", "Air India", "Etihad Airways",
		"Vistara", "British Airways", "Thai Airways",
	}
	weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

	faqCategories = []string{"Passenger", "Cargo", "Security", "Facilities"}

	airports            = []string{"Chennai", "Mumbai", "Bengaluru", "Indore", "Delhi", "Hyderabad"}
	serviceCategoriesEn = []string{"Parking and Transportation", "Special Assistance Services"}
	serviceCategoriesHi = []string{"पार्किंग और परिवहन", "विशेष सहायता सेवाएँ"}
)

var (
	yearRe        = regexp.MustCompile(`\b(\d{4})\b`)
	quantityRe    = regexp.MustCompile(`(?i)\bquantity\s*[:\-]?\s*(\d+(?:\.\d+)?)`)
	updatedDateRe = regexp.MustCompile(`(?i)\bupdated(?:\s*date)?\s*[:\-]?\s*(\d{4}-\d{2}-\d{2})`)

	flightNumberRe = regexp.MustCompile(`(?i)flight\s*number\s*(\w+)`)
	originRe       = regexp.MustCompile(`(?i)\bfrom\s+([a-z][a-z\s]*?)(?:\s+to\b|\s+(?:` + stopLabels + `)\b|[^a-z\s]|$)`)
	routeToRe      = regexp.MustCompile(`(?i)\bfrom\s+[a-z][a-z\s]*?\s+to\s+([a-z][a-z\s]*?)(?:\s+(?:from|to|` + stopLabels + `)\b|[^a-z\s]|$)`)
	destinationRe  = regexp.MustCompile(`(?i)\bto\s+([a-z][a-z\s]*?)(?:\s+(?:from|to|` + stopLabels + `)\b|[^a-z\s]|$)`)
	departureRe    = regexp.MustCompile(`(?i)departure\s+time\s*[:\-]?\s*(\d{1,2}:\d{2})`)
	arrivalRe      = regexp.MustCompile(`(?i)arrival\s+time\s*[:\-]?\s*(\d{1,2}:\d{2})`)
	timezoneRe     = regexp.MustCompile(`(?i)\btimezone\s*[:\-]?\s*([\w/]+(?:\s+[\w/]+)*?)(?:\s+(?:from|to|` + stopLabels + `)\b|[^\w\s/]|$)`)
	validFromRe    = regexp.MustCompile(`(?i)valid\s*from\s*[:\-]?\s*(\d{4}-\d{2}-\d{2})`)
	validToRe      = regexp.MustCompile(`(?i)valid\s*to\s*[:\-]?\s*(\d{4}-\d{2}-\d{2})`)
	lastUpdatedRe  = regexp.MustCompile(`(?i)last\s*updated\s*[:\-]?\s*(\d{4}-\d{2}-\d{2})`)

	faqQuestionRe      = regexp.MustCompile(`(?i)\bquestion\b\s*[:\-]?\s*(.+)`)
	faqAnswerRe        = regexp.MustCompile(`(?i)\banswer\b\s*[:\-]?\s*(.+)`)
	faqQuestionHindiRe = regexp.MustCompile(`(?i)\bquestion\s+hindi\s*[:\-]?\s*(.+)`)
	faqAnswerHindiRe   = regexp.MustCompile(`(?i)\banswer\s+hindi\s*[:\-]?\s*(.+)`)

	titleEnglishRe       = regexp.MustCompile(`(?i)title\s*english\s*[:\-]?\s*(.+)`)
	titleHindiRe         = regexp.MustCompile(`(?i)title\s*hindi\s*[:\-]?\s*(.+)`)
	descriptionEnglishRe = regexp.MustCompile(`(?i)description\s*english\s*[:\-]?\s*(.+)`)
	descriptionHindiRe   = regexp.MustCompile(`(?i)description\s*hindi\s*[:\-]?\s*(.+)`)
	emailRe              = regexp.MustCompile(`(?i)email\s*[:\-]?\s*([\w.\-]+@[\w.\-]+)`)
	phoneRe              = regexp.MustCompile(`(?i)phone\s*[:\-]?\s*(\d{10,15})`)
	websiteRe            = regexp.MustCompile(`(?i)website\s*[:\-]?\s*(https?://\S+)`)
)

// DefaultSpecs returns the extraction rules of the built-in datasets.
// aviation_grievance declares no filters and has no rules.
func DefaultSpecs() map[string]Spec {
	return map[string]Spec{
		"petroleum_consumption": {
			Vocabulary: []VocabularyRule{
				{Field: "_month_", Values: months},
				{Field: "products", Values: petroleumProducts},
			},
			Patterns: []PatternRule{
				{Field: "year", Pattern: yearRe},
				{Field: "quantity_000_metric_tonnes_", Pattern: quantityRe},
				{Field: "updated_date", Pattern: updatedDateRe},
			},
		},
		"flight_schedule": {
			Vocabulary: []VocabularyRule{
				{Field: "airline", Values: airlines},
				{Field: "daysOfWeek", Values: weekdays, Multi: true},
			},
			Patterns: []PatternRule{
				{Field: "flightNumber", Pattern: flightNumberRe, Transform: Upper},
				{Field: "origin", Pattern: originRe, Transform: Title},
				{Field: "destination", Pattern: routeToRe, Transform: Title},
				{Field: "destination", Pattern: destinationRe, Transform: Title},
				{Field: "scheduledDepartureTime", Pattern: departureRe},
				{Field: "scheduledArrivalTime", Pattern: arrivalRe},
				{Field: "timezone", Pattern: timezoneRe, Transform: Title},
				{Field: "validFrom", Pattern: validFromRe},
				{Field: "validTo", Pattern: validToRe},
				{Field: "last_updated", Pattern: lastUpdatedRe},
			},
		},
		"aviation_faqs": {
			Vocabulary: []VocabularyRule{
				{Field: "category", Values: faqCategories},
			},
			Patterns: []PatternRule{
				{Field: "faqQuestion", Pattern: faqQuestionRe},
				{Field: "faqAnswer", Pattern: faqAnswerRe},
				{Field: "faqQuestionHindi", Pattern: faqQuestionHindiRe},
				{Field: "faqAnswerHindi", Pattern: faqAnswerHindiRe},
				{Field: "last_updated", Pattern: lastUpdatedRe},
			},
		},
		"airport_services": {
			Vocabulary: []VocabularyRule{
				{Field: "airport", Values: airports},
				{Field: "categoryenglish", Values: serviceCategoriesEn},
				{Field: "categoryHindi", Values: serviceCategoriesHi},
			},
			Patterns: []PatternRule{
				{Field: "titleEnglish", Pattern: titleEnglishRe},
				{Field: "titleHindi", Pattern: titleHindiRe},
				{Field: "descriptionEnglish", Pattern: descriptionEnglishRe},
				{Field: "descriptionHindi", Pattern: descriptionHindiRe},
				{Field: "email", Pattern: emailRe},
				{Field: "phone", Pattern: phoneRe},
				{Field: "website", Pattern: websiteRe},
				{Field: "last_updated", Pattern: lastUpdatedRe},
			},
		},
	}
}

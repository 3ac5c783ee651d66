package registry

const dataGovBase = "https://api.data.gov.in/resource/"

// Builtin returns the catalog compiled into the binary. The dataset order is
// the classifier's tie-break order.
func Builtin() *Catalog {
	return &Catalog{
		Version:     "1.0.0",
		LastUpdated: "2026-10-16",
		Datasets: []DatasetDescriptor{
			{
				ID:           "petroleum_consumption",
				Name:         "Monthly Consumption of Petroleum Products",
				Endpoint:     dataGovBase + "7b624b4a-1456-4945-80d0-dfb5e40ddcff",
				Filters:      []string{"_month_", "year", "products", "quantity_000_metric_tonnes_", "updated_date"},
				Columns:      []string{"_month_", "year", "products", "quantity_000_metric_tonnes_", "updated_date"},
				Keywords:     []string{"petroleum", "consumption", "lpg", "naphtha", "bitumen"},
				DefaultLimit: 15,
				DownloadName: "petroleum_consumption.csv",
				Examples:     []string{"Show me the consumption of LPG in 2022."},
			},
			{
				ID:       "aviation_grievance",
				Name:     "Aviation Grievance - as on date",
				Endpoint: dataGovBase + "7be93611-4e76-4077-8d00-6232d01367cf",
				Filters:  []string{},
				Columns: []string{
					"category", "subcategory", "type", "totalReceived",
					"activeGrievancesWithoutEscalation", "activeGrievancesWithEscalation",
					"closedGrievancesWithoutEscalation", "closedGrievancesWithEscalation",
					"successfulTransferIn", "successfulTransferOut",
					"grievancesWithoutRatings", "grievancesWithRatings",
					"grievancesWithVeryGoodRating", "grievanceswithgoodrating",
					"grievancesWithOKRating", "grievancesWithBadRating",
					"grievancesWithVeryBadRating", "twitterGrievances",
					"facebookGrievances", "grievancesAdditionalInfoProvided",
					"grievancesAdditionalInfoNotProvided", "grievancesWithoutFeedback",
					"grievancesWithFeedback", "grievancesWithFeedbackIssueNotResolved",
					"grievancesWithFeedbackIssueResolved",
				},
				Keywords:     []string{"grievance", "complaint", "issue"},
				DefaultLimit: 10,
				DownloadName: "airsewa_data.csv",
				Examples:     []string{"Show me the aviation grievances for Ethiopian Airlines in 2024."},
			},
			{
				ID:       "flight_schedule",
				Name:     "Flight Schedule",
				Endpoint: dataGovBase + "b71db183-2d15-4f61-9cee-7de3c83561a1",
				Filters: []string{
					"airline", "flightNumber", "origin", "destination",
					"daysOfWeek", "scheduledDepartureTime", "scheduledArrivalTime",
					"timezone", "validFrom", "validTo", "last_updated",
				},
				Columns: []string{
					"airline", "flightNumber", "origin", "destination",
					"daysOfWeek", "scheduledDepartureTime", "scheduledArrivalTime",
					"timezone", "validFrom", "validTo", "lastUpdated",
				},
				Keywords:     []string{"flight schedule", "flight status", "flight number", "departure", "arrival"},
				DefaultLimit: 10,
				DownloadName: "airsewa_data.csv",
				Examples:     []string{"What is the flight schedule for Indigo flight 451 from Bengaluru to Lucknow?"},
			},
			{
				ID:       "aviation_faqs",
				Name:     "AirSewa - Aviation Frequently Asked Questions (FAQs)",
				Endpoint: dataGovBase + "bc015fd1-a544-43b1-b4a2-729475c4580c",
				Filters: []string{
					"category", "faqQuestion", "faqAnswer",
					"faqQuestionHindi", "faqAnswerHindi", "last_updated",
				},
				Columns: []string{
					"category", "faqQuestion", "faqAnswer",
					"faqQuestionHindi", "faqAnswerHindi", "lastUpdated",
				},
				Keywords:     []string{"faq", "frequently asked questions", "question", "answer"},
				DefaultLimit: 10,
				DownloadName: "airsewa_data.csv",
				Examples:     []string{"I have a question about Jet Airways baggage services."},
			},
			{
				ID:       "airport_services",
				Name:     "AirSewa - Airport Services Data",
				Endpoint: dataGovBase + "93710e81-db2b-4f95-9223-89156dfd8bc9",
				Filters: []string{
					"airport", "categoryenglish", "categoryHindi",
					"titleEnglish", "titleHindi", "descriptionEnglish",
					"descriptionHindi", "email", "phone", "website", "last_updated",
				},
				Columns: []string{
					"airport", "categoryenglish", "categoryHindi",
					"titleEnglish", "titleHindi", "descriptionEnglish",
					"descriptionHindi", "email", "phone", "website", "last_updated",
				},
				Keywords:     []string{"airport services", "services", "facility", "services data"},
				DefaultLimit: 10,
				DownloadName: "airsewa_data.csv",
				Examples:     []string{"Where are the pharmacy services at Mumbai Airport?"},
			},
		},
	}
}

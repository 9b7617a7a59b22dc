package i18n

var messages = map[string]map[string]string{
	"en": {
		"nav.home":        "Home",
		"nav.machines":    "Rent Machines",
		"nav.marketplace": "Crops & Seeds",
		"nav.login":       "Login",
		"nav.register":    "Register",

		"error.invalid_request": "Invalid request payload",
		"error.store":           "Something went wrong. Please try again.",

		"error.auth.missing_fields":         "Email and password are required",
		"error.auth.invalid_credentials":    "Invalid login credentials",
		"error.auth.email_not_confirmed":    "Email not confirmed",
		"error.auth.email_taken":            "An account with this email already exists",
		"error.auth.session_required":       "Please log in to continue",
		"error.auth.session_expired":        "Your session has expired. Please log in again.",
		"error.auth.admin_only":             "Forbidden: admin only",
		"error.auth.farmer_only":            "Only farmers can perform this action",
		"error.auth.invalid_role":           "Unknown role",
		"error.profile.not_found":           "Could not load your profile. Please contact support.",
		"error.booking.dates_required":      "Please select both dates",
		"error.booking.invalid_range":       "The end date must not be before the start date",
		"error.booking.farmer_required":     "A farmer account is required to book",
		"error.booking.payment_method":      "Choose cash or online payment",
		"error.booking.machine_unavailable": "This machine is not available for booking",
		"error.booking.not_found":           "Booking not found",
		"error.booking.already_decided":     "This booking has already been decided",
		"error.booking.overlap":             "The machine is already booked for these dates",
		"error.booking.invalid_decision":    "Decision must be Approved or Rejected",
		"error.booking.not_owner":           "This booking belongs to another farmer",
		"error.booking.not_online":          "Only online bookings need payment confirmation",
		"error.booking.invalid":             "Booking record is invalid",
		"error.machine.not_found":           "Machine not found",
		"error.machine.invalid":             "Machine details are invalid",
		"error.listing.not_found":           "Listing not found",
		"error.listing.invalid":             "Listing details are invalid",
		"error.listing.not_owner":           "This listing belongs to another farmer",
		"error.listing.not_active":          "Listing is no longer active",
		"error.profile.invalid":             "Profile details are invalid",
		"error.calendar.invalid_month":      "Year and month are required",
	},
	"hi": {
		"nav.home":        "होम",
		"nav.machines":    "मशीन किराया",
		"nav.marketplace": "फसल और बीज",
		"nav.login":       "लॉगिन",
		"nav.register":    "रजिस्टर",

		"error.store":                    "कुछ गलत हो गया। कृपया पुनः प्रयास करें।",
		"error.auth.invalid_credentials": "अमान्य लॉगिन विवरण",
		"error.auth.session_required":    "जारी रखने के लिए कृपया लॉगिन करें",
		"error.booking.dates_required":   "कृपया दोनों तिथियां चुनें",
		"error.booking.invalid_range":    "समाप्ति तिथि आरंभ तिथि से पहले नहीं हो सकती",
		"error.booking.not_found":        "बुकिंग नहीं मिली",
		"error.booking.already_decided":  "इस बुकिंग पर पहले ही निर्णय हो चुका है",
		"error.booking.overlap":          "इन तिथियों के लिए मशीन पहले से बुक है",
		"error.machine.not_found":        "मशीन नहीं मिली",
	},
	"kn": {
		"nav.home":        "ಮುಖಪುಟ",
		"nav.machines":    "ಯಂತ್ರ ಬಾಡಿಗೆ",
		"nav.marketplace": "ಬೆಳೆಗಳು ಮತ್ತು ಬೀಜಗಳು",
		"nav.login":       "ಲಾಗಿನ್",
		"nav.register":    "ನೋಂದಣಿ",
	},
	"ml": {
		"nav.home":        "ഹോം",
		"nav.machines":    "യന്ത്ര വാടക",
		"nav.marketplace": "വിളകളും വിത്തുകളും",
		"nav.login":       "ലോഗിൻ",
		"nav.register":    "രജിസ്റ്റർ",
	},
}

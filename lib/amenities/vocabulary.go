package amenities

// Vocabulary is the closed set of amenity labels entities are compared
// over. Extraction never produces a label outside this list.
var Vocabulary = []string{
	"Free parking", "Free High Speed Internet (WiFi)", "Fitness Centre with Gym / Workout Room",
	"Pool", "Bar / lounge", "Beach", "Water sport equipment rentals", "Highchairs available",
	"Electric vehicle charging station", "Valet parking", "Paid public parking on-site",
	"Wifi", "Fitness / spa changing rooms", "Pool / beach towels", "Rooftop pool",
	"Pool with view", "Outdoor pool", "Coffee shop", "Restaurant", "Breakfast available",
	"Breakfast buffet", "Breakfast in the room", "Airport transportation", "Shuttle bus service",
	"Car hire", "Taxi service", "Meeting rooms", "Photo copier / fax In business centre",
	"Spa", "Rooftop terrace", "24-hour security", "Baggage storage", "Concierge",
	"Newspaper", "Non-smoking hotel", "Outdoor furniture", "Sun loungers / beach chairs",
	"Sun terrace", "Sun umbrellas", "Doorperson", "First aid kit", "Umbrella",
	"24-hour check-in", "24-hour front desk", "Dry cleaning", "Laundry service",
	"Iron", "Blackout curtains", "Bathrobes", "Seating area", "Separate dining area",
	"Separate living room", "Sofa", "Private bathrooms", "Tile / marble floor",
	"Wake-up service / alarm clock", "Flatscreen TV", "On-demand films", "Radio",
	"Walk-in shower", "Bath / shower", "Complimentary toiletries",
}

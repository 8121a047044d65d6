package transform

// Static per-field classification tables. These are fixed properties of the
// destination schema, not per-call configuration; they are loaded once when
// the Transformer is built.

var integerFields = set(
	"guests",
	"max_guests",
	"bedrooms",
	"bathrooms",
	"sleeps",
	"min_nights",
	"max_nights",
	"nights",
	"sequence",
)

var decimalFields = set(
	"price",
	"nightly_rate",
	"weekly_rate",
	"monthly_rate",
	"total_price",
	"service_fee",
	"cleaning_fee",
	"host_payout",
	"latitude",
	"longitude",
	"rating",
)

var booleanFields = set(
	"active",
	"verified",
	"instant_book",
	"furnished",
	"pets_allowed",
	"smoking_allowed",
)

var structuredFields = set(
	"amenities",
	"photos",
	"house_rules",
	"days_available",
	"blocked_dates",
	"listing_ids",
	"proposal_ids",
	"metadata",
)

var timestampFields = set(
	"created_at",
	"updated_at",
	"check_in",
	"check_out",
	"start_date",
	"end_date",
)

// dayLabelFields hold weekday indexes in the primary store but the
// destination expects weekday names.
var dayLabelFields = set(
	"check_in_day",
	"check_out_day",
	"start_day",
	"end_day",
)

// excludedFields never leave the system, they are dropped from transformed
// output entirely rather than nulled.
var excludedFields = set(
	"password_hash",
	"api_key",
	"access_token",
	"refresh_token",
	"secret_key",
)

var weekdayNames = [...]string{
	"Sunday",
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
}

func set(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}

	return m
}

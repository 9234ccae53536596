package bank

// samplePurchases is the seed data pushed into a fresh sandbox account and
// the synthesized stand-in batch used when the sandbox is unreachable.
var samplePurchases = []struct {
	Description string
	Amount      float64
}{
	{"HEB Grocery Store", 1200},
	{"Starbucks Coffee", 45},
	{"Shell Gas Station", 85},
	{"Austin Energy Bill", 1200},
	{"Target Shopping", 65},
	{"Netflix Subscription", 25},
	{"Whole Foods Market", 150},
	{"Chipotle Mexican Grill", 35},
	{"AT&T Mobile Bill", 200},
	{"AMC Theaters", 75},
	{"CVS Pharmacy", 90},
	{"Dunkin Donuts", 40},
	{"Rent Payment", 300},
	{"Uber Ride", 55},
	{"Walmart Supercenter", 120},
	{"Spotify Premium", 15},
	{"Costco Wholesale", 180},
	{"McDonald's", 30},
	{"Car Insurance Payment", 250},
	{"Amazon Prime", 50},
	{"Trader Joe's", 95},
	{"Subway", 20},
	{"Chevron Gas Station", 110},
	{"Zara Clothing", 70},
	{"Kroger Grocery", 160},
	{"Hulu Subscription", 12},
	{"Safeway Grocery", 140},
	{"Pizza Hut", 28},
	{"Health Insurance", 220},
	{"Regal Cinemas", 60},
}

// SampleRecords returns the synthesized transaction batch in the raw record
// shape the source adapter expects. Records carry no ids on purpose; the
// adapter synthesizes fresh ones per call.
func (c *Client) SampleRecords() []map[string]interface{} {
	records := make([]map[string]interface{}, 0, len(samplePurchases))
	for _, p := range samplePurchases {
		records = append(records, map[string]interface{}{
			"description": p.Description,
			"amount":      p.Amount,
		})
	}
	return records
}

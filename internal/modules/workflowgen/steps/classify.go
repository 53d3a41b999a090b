package steps

import "strings"

type category struct {
	label    string
	keywords []string
}

var industryTable = []category{
	{"ecommerce", []string{"shopify", "ecommerce", "e-commerce", "online store", "storefront", "sku"}},
	{"marketing", []string{"marketing", "advertis", "ugc", "influencer", "brand"}},
	{"media", []string{"youtube", "tiktok", "video", "podcast", "music"}},
	{"sales", []string{"sales", "lead gen", "leadgen", "crm", "prospect"}},
	{"recruiting", []string{"recruit", "hiring", "job board", "job post", "candidate"}},
	{"finance", []string{"invoice", "accounting", "finance", "payment", "expense"}},
}

var domainTable = []category{
	{"summaries", []string{"summar", "digest", "recap", "tl;dr"}},
	{"research", []string{"research", "scrap", "deep dive"}},
	{"content", []string{"blog", "article", "caption", "copywrit", "newsletter"}},
	{"lead-generation", []string{"enrich", "lead list", "outreach"}},
	{"video-generation", []string{"render", "text-to-video", "avatar", "clip"}},
	{"approvals", []string{"approval", "approve", "human-in-the-loop", "sign off", "signoff"}},
	{"scheduling", []string{"schedul", "calendar", "planner"}},
}

var channelTable = []category{
	{"slack", []string{"slack"}},
	{"email", []string{"email", "gmail", "outlook"}},
	{"telegram", []string{"telegram"}},
	{"discord", []string{"discord"}},
	{"whatsapp", []string{"whatsapp"}},
	{"linkedin", []string{"linkedin"}},
	{"instagram", []string{"instagram"}},
	{"sms", []string{"twilio", "text message"}},
}

// First match wins, in this order.
var triggerTable = []category{
	{"webhook", []string{"webhook", "http request", "form submission"}},
	{"schedule", []string{"daily", "weekly", "hourly", "every morning", "every day", "cron", "on a schedule"}},
	{"event", []string{"whenever", "new email", "new message", "new row", "when a "}},
	{"manual", []string{"manually", "on demand", "button"}},
}

// Classify tags text by substring keyword match. Industries, domains and
// channels collect every matching label in table order; trigger is the
// first matching label only.
func Classify(text string) InferredMetadata {
	lower := strings.ToLower(text)
	out := InferredMetadata{
		Industries: matchAll(lower, industryTable),
		Domains:    matchAll(lower, domainTable),
		Channels:   matchAll(lower, channelTable),
	}
	for _, c := range triggerTable {
		if containsAny(lower, c.keywords) {
			out.Trigger = c.label
			break
		}
	}
	return out
}

func matchAll(lower string, table []category) []string {
	out := []string{}
	for _, c := range table {
		if containsAny(lower, c.keywords) {
			out = append(out, c.label)
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

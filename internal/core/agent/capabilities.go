package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/astralisone/voice-agent-be/internal/core/kb"
	"github.com/astralisone/voice-agent-be/internal/models"
)

// Capability names exposed to the conversational layer.
const (
	CapServiceInfo     = "get_service_info"
	CapPricingInfo     = "get_pricing_info"
	CapCompanyInfo     = "get_company_info"
	CapKnowledgeSearch = "search_knowledge_base"
)

// CapabilityFunc is a pure function of the bound client's data. Binding
// a client is partial application of these over its profile and
// knowledge content; no per-client code is generated.
type CapabilityFunc func(profile models.ClientProfile, knowledge, query string) string

// capabilityTable is the fixed set of capability kinds.
var capabilityTable = map[string]CapabilityFunc{
	CapServiceInfo:     serviceInfo,
	CapPricingInfo:     pricingInfo,
	CapCompanyInfo:     companyInfo,
	CapKnowledgeSearch: knowledgeSearch,
}

// customOverride checks the client's canned responses before any
// generic phrasing. Match is a case-insensitive substring test in both
// directions. Keys are visited in sorted order so the answer is
// deterministic when several match.
func customOverride(p models.ClientProfile, query string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return "", false
	}
	keys := make([]string, 0, len(p.CustomResponses))
	for key := range p.CustomResponses {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		k := strings.ToLower(key)
		if strings.Contains(k, q) || strings.Contains(q, k) {
			return p.CustomResponses[key], true
		}
	}
	return "", false
}

func serviceInfo(p models.ClientProfile, _ string, query string) string {
	name := strings.ToLower(strings.TrimSpace(query))
	if resp, ok := customOverride(p, name); ok {
		return resp
	}

	if name != "" {
		for _, svc := range p.Services {
			s := strings.ToLower(svc)
			if strings.Contains(s, name) || strings.Contains(name, s) {
				return fmt.Sprintf("%s offers %s. Contact us for more details.", p.BrandName, svc)
			}
		}
	}

	return fmt.Sprintf("I don't have specific information about '%s'. %s specializes in %s. How can I help you with these services?",
		query, p.BrandName, strings.Join(p.Services, ", "))
}

func pricingInfo(p models.ClientProfile, _ string, query string) string {
	serviceType := strings.ToLower(strings.TrimSpace(query))
	if serviceType == "" {
		serviceType = "general"
	}
	if resp, ok := customOverride(p, serviceType); ok {
		return resp
	}

	tierNames := make([]string, 0, len(p.PricingTiers))
	for name := range p.PricingTiers {
		tierNames = append(tierNames, name)
	}
	sort.Strings(tierNames)

	for _, tierName := range tierNames {
		if !strings.Contains(strings.ToLower(tierName), serviceType) {
			continue
		}
		tier := p.PricingTiers[tierName]
		price := tier.Price
		if price == "" {
			price = "Contact for pricing"
		}
		if len(tier.Features) > 0 {
			return fmt.Sprintf("%s: %s - includes %s", tierName, price, strings.Join(tier.Features, ", "))
		}
		return fmt.Sprintf("%s: %s", tierName, price)
	}

	if len(tierNames) > 0 {
		return fmt.Sprintf("%s offers flexible pricing with plans: %s. Contact us for detailed pricing.",
			p.BrandName, strings.Join(tierNames, ", "))
	}
	return fmt.Sprintf("Contact %s for pricing information on our %s services.",
		p.BrandName, strings.Join(p.Services, ", "))
}

func companyInfo(p models.ClientProfile, _ string, query string) string {
	if resp, ok := customOverride(p, query); ok {
		return resp
	}

	var contactParts []string
	if phone := p.ContactInfo["phone"]; phone != "" {
		contactParts = append(contactParts, "Call us at "+phone)
	}
	if email := p.ContactInfo["email"]; email != "" {
		contactParts = append(contactParts, "email "+email)
	}
	if website := p.ContactInfo["website"]; website != "" {
		contactParts = append(contactParts, "visit "+website)
	}

	answer := fmt.Sprintf("%s is your trusted partner for business solutions.", p.CompanyName)
	if len(p.Services) > 0 {
		answer += fmt.Sprintf(" We specialize in %s.", strings.Join(p.Services, ", "))
	}
	if len(contactParts) > 0 {
		answer += " " + strings.Join(contactParts, " or ") + "."
	}
	return answer
}

func knowledgeSearch(p models.ClientProfile, knowledge, query string) string {
	if resp, ok := customOverride(p, query); ok {
		return resp
	}
	return kb.Search(knowledge, query, p.BrandName)
}

package market

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brandReply = `{
  "brand_name": "Kitchly",
  "tagline": "Idle kitchens, busy startups",
  "value_proposition": "Cook in proven kitchens without a lease",
  "target_audience": "food startups",
  "brand_personality": {"voice": "Approachable", "tone": "warm", "personality_traits": "friendly"},
  "visual_identity": {"color_palette": ["#ff6b00", "#222222"], "typography": 2, "imagery_style": "bright kitchens"},
  "messaging_framework": {"primary_message": "Rent time, not space", "supporting_messages": ["No lease"]}
}`

func TestGenerateBrandIdentity(t *testing.T) {
	withLLM(t, &scriptedLLM{fallback: brandReply})
	withResolver(t, []string{"kitchly.com"}, nil)

	b, err := GenerateBrandIdentity(context.Background(), strongOpportunity())
	require.NoError(t, err)
	assert.Equal(t, "Kitchly", b.BrandName)
	assert.Equal(t, "ShiftSwap", b.OpportunityName)
	assert.Equal(t, StringList{"friendly"}, b.Personality.Traits)
	assert.Equal(t, FlexString("2"), b.Visual.Typography)
	require.Len(t, b.DomainSuggestions, 8)
	assert.Equal(t, "kitchly.com", b.DomainSuggestions[0].Domain)
	assert.False(t, *b.DomainSuggestions[0].Available)
	assert.Len(t, b.TrademarkConsiderations, 5)
}

func TestGenerateBrandIdentity_NameFallback(t *testing.T) {
	withLLM(t, &scriptedLLM{fallback: `{"tagline": "no name given"}`})
	withResolver(t, nil, nil)

	b, err := GenerateBrandIdentity(context.Background(), Opportunity{OpportunityName: "Desk Pool"})
	require.NoError(t, err)
	assert.Equal(t, "Desk Pool", b.BrandName)
	assert.Equal(t, "deskpool.com", b.DomainSuggestions[0].Domain)
}

func TestGenerateBrandIdentity_LLMError(t *testing.T) {
	withLLM(t, &scriptedLLM{err: errors.New("boom")})
	_, err := GenerateBrandIdentity(context.Background(), Opportunity{})
	assert.ErrorContains(t, err, "brand identity")
}

func TestDomainSuggestions(t *testing.T) {
	s := DomainSuggestions("Shift Swap")
	require.Len(t, s, 8)
	assert.Equal(t, []string{"shiftswap.com", "shiftswap.io", "shiftswap.co"},
		[]string{s[0].Domain, s[1].Domain, s[2].Domain})
	assert.Equal(t, "getshiftswap.com", s[3].Domain)
	assert.Equal(t, "medium", s[3].Priority)
	assert.Equal(t, "alternative_option", s[7].Recommendation)
	assert.Nil(t, DomainSuggestions("!!"))
}

func TestTrademarkConsiderations(t *testing.T) {
	assert.Equal(t, []string{"No brand name provided for assessment"}, TrademarkConsiderations(" "))
	assert.Len(t, TrademarkConsiderations("Kitchly"), 5)

	got := TrademarkConsiderations("My Brand Name 2")
	assert.Len(t, got, 7)
	assert.Contains(t, got, "Multi-word names may be harder to trademark")
	assert.Contains(t, got, "Names with numbers may face trademark challenges")
}

func TestGenerateMarketingCopy(t *testing.T) {
	withLLM(t, &scriptedLLM{rules: []rule{
		{"Create marketing copy", `{"headlines": ["Cook without a lease"], "taglines": "Rent time", "value_propositions": ["Save 80%", "Start in a week"], "ad_copy": {"google_ads": ["Kitchens by the hour"]}}`},
		{"Generate website copy", `not json`},
	}})
	b := &BrandIdentity{BrandName: "Kitchly", ValueProposition: "Cook in proven kitchens", TargetAudience: "food startups"}

	mc := GenerateMarketingCopy(context.Background(), b, strongOpportunity())
	assert.Equal(t, "Kitchly", mc.BrandName)
	assert.Equal(t, StringList{"Cook without a lease"}, mc.Headlines)
	assert.Equal(t, StringList{"Rent time"}, mc.Taglines)
	assert.Len(t, mc.ValuePropositions, 2)
	assert.Equal(t, "Finally, cook in proven kitchens", mc.WebsiteCopy.HeroHeadline, "website copy falls back to the template")
	assert.Contains(t, mc.Errors, "website_copy")
	assert.Len(t, mc.EmailSequences["welcome_sequence"], 3)
	assert.Len(t, mc.SocialCopy["twitter_posts"], 3)
}

func TestGenerateMarketingCopy_AllSucceed(t *testing.T) {
	withLLM(t, &scriptedLLM{rules: []rule{
		{"Create marketing copy", `{"headlines": ["h"]}`},
		{"Generate website copy", `{"hero_headline": "Kitchens on demand", "cta_primary": "Book a slot"}`},
	}})
	mc := GenerateMarketingCopy(context.Background(), &BrandIdentity{BrandName: "Kitchly"}, Opportunity{})
	assert.Nil(t, mc.Errors)
	assert.Equal(t, "Kitchens on demand", mc.WebsiteCopy.HeroHeadline)
	assert.Equal(t, "Book a slot", mc.WebsiteCopy.CTAPrimary)
}

func TestFallbackWebsiteCopy_Defaults(t *testing.T) {
	wc := FallbackWebsiteCopy(&BrandIdentity{})
	assert.Equal(t, "Finally, transform your workflow", wc.HeroHeadline)
	assert.Contains(t, wc.ProblemSection, "The Problem Teams Face")
	assert.Equal(t, "See Solution in Action", wc.CTASecondary)
}

func TestSocialCopy(t *testing.T) {
	sc := SocialCopy("", "")
	assert.Len(t, sc["linkedin_posts"], 2)
	assert.Len(t, sc["facebook_posts"], 2)
	assert.Contains(t, sc["twitter_posts"][2], "workflow automation does")
}

package rules

import "callwire/internal/model"

// Stable rule identifiers the engine keys its session side effects on.
const (
	RuleCallingTime         = "TIME-001"
	RuleDNCRequest          = "DNC-001"
	RuleDNCPersisted        = "DNC-002"
	RuleDNCListed           = "DNC-003"
	RuleSellerIdentity      = "DISC-001"
	RuleSalesPurpose        = "DISC-002"
	RuleProductDescription  = "DISC-003"
	RuleConsentRevoked      = "CONS-001"
	RuleCallbackNumber      = "IDENT-001"
	RulePrerecorded         = "PREC-001"
	RuleRecordingDisclosure = "REC-001"
)

// Default returns the embedded TCPA/TSR rule set. Order matters: rules are
// evaluated in declared order, and DNC-001 must precede DNC-002 so that a
// request and a continuation attempt arriving in the same evaluation are
// attributed in the right sequence.
func Default() model.RuleSet {
	return model.RuleSet{
		Version:     "1.0.0",
		LastUpdated: "2026-01-16",
		Disclaimer: "This tool provides compliance risk signals only. It is NOT legal advice. " +
			"Compliance requirements depend on jurisdiction and require legal counsel review. " +
			"Always consult with qualified legal professionals for compliance decisions.",
		Rules: []model.Rule{
			{
				ID:               RuleCallingTime,
				Title:            "Calling Time Violation",
				Category:         model.CategoryCallingTime,
				Description:      "Telemarketing calls made outside 8am-9pm in the consumer's local time",
				Severity:         model.SeverityHigh,
				RequiresMetadata: true,
				MetadataField:    "call_time_local",
				WhyItMatters: "The TCPA prohibits telemarketing calls before 8am or after 9pm in the " +
					"consumer's local time zone. Violations can result in $500-$1,500 per call.",
				RecommendedFix: "Verify time zone before calling. If outside hours, apologize and offer " +
					"to call back during appropriate hours.",
				LegalReference: "47 U.S.C. § 227(c)(5); 47 C.F.R. § 64.1200(c)(1)",
				Enabled:        true,
			},
			{
				ID:          RuleDNCRequest,
				Title:       "Customer Requested No Further Calls",
				Category:    model.CategoryDoNotCall,
				Description: "Customer explicitly requests to stop receiving calls",
				Severity:    model.SeverityHigh,
				Triggers: []string{
					"don't call me",
					"do not call me",
					"stop calling me",
					"remove me from your list",
					"take me off your list",
					"put me on do not call",
					"add me to do not call",
					"no more calls",
					"never call again",
					"stop contacting me",
				},
				RegexPatterns: []string{
					`(?i)(don'?t|do\s*not|stop|quit|cease)\s+(call|contact|ring|phone)`,
					`(?i)(remove|take)\s+(me|my\s+number)\s+(from|off)`,
					`(?i)(put|add)\s+(me|my\s+number)\s+(on|to)\s+(the\s+)?(do\s*not\s*call|dnc)`,
				},
				WhyItMatters: "Under TCPA, consumers can revoke consent by any reasonable means at any time. " +
					"Continuing to call after a DNC request is a violation.",
				RecommendedFix: "Understood—I'll add you to our Do Not Call list effective immediately. " +
					"You won't receive any more marketing calls from us. Is there anything else " +
					"I can help you with today?",
				LegalReference: "47 U.S.C. § 227(c); 47 C.F.R. § 64.1200(d)",
				Enabled:        true,
			},
			{
				ID:          RuleDNCPersisted,
				Title:       "Agent Continued After DNC Request",
				Category:    model.CategoryDoNotCall,
				Description: "Agent attempted to continue sales pitch after customer requested DNC",
				Severity:    model.SeverityHigh,
				Triggers: []string{
					"before you go",
					"just one more thing",
					"let me just tell you",
					"you might want to hear",
					"are you sure",
					"but wait",
				},
				RegexPatterns: []string{
					`(?i)(before\s+you\s+go|just\s+one\s+more|let\s+me\s+just)`,
					`(?i)(are\s+you\s+sure|but\s+wait|hear\s+me\s+out)`,
				},
				WhyItMatters: "After a DNC request, any attempt to continue selling significantly " +
					"increases violation risk and demonstrates willful non-compliance.",
				RecommendedFix: "Do not continue selling. Acknowledge the request, confirm DNC placement, " +
					"and end the call professionally.",
				LegalReference: "47 C.F.R. § 64.1200(d)(3)",
				Enabled:        true,
			},
			{
				ID:               RuleDNCListed,
				Title:            "National DNC List - No Consent Evidence",
				Category:         model.CategoryDoNotCall,
				Description:      "Number is on National DNC list and call is marketing without consent evidence",
				Severity:         model.SeverityHigh,
				RequiresMetadata: true,
				MetadataField:    "is_dnc_listed",
				WhyItMatters: "Calling numbers on the National DNC Registry without prior express consent " +
					"or an established business relationship is a TCPA violation.",
				RecommendedFix: "If calling a DNC-listed number, ensure you have documented consent or " +
					"an existing business relationship. If unsure, end the marketing call.",
				LegalReference: "47 C.F.R. § 64.1200(c)(2)",
				Enabled:        true,
			},
			{
				ID:          RuleSellerIdentity,
				Title:       "Missing Seller Identity Disclosure",
				Category:    model.CategoryDisclosure,
				Description: "Agent did not promptly identify the seller/company name",
				Severity:    model.SeverityMedium,
				RegexPatterns: []string{
					`(?i)(calling\s+(from|on\s+behalf\s+of)|this\s+is|my\s+name\s+is.*?(with|from))`,
				},
				WhyItMatters: "FTC Telemarketing Sales Rule requires prompt disclosure of the seller's " +
					"identity at the beginning of outbound sales calls.",
				RecommendedFix: "Hi, my name is [Name] calling from [Company Name].",
				LegalReference: "16 C.F.R. § 310.4(d)(1)",
				Enabled:        true,
			},
			{
				ID:          RuleSalesPurpose,
				Title:       "Missing Sales Call Nature Disclosure",
				Category:    model.CategoryDisclosure,
				Description: "Agent did not disclose that the call is a sales call",
				Severity:    model.SeverityMedium,
				RegexPatterns: []string{
					`(?i)(sales|marketing|promotion|offer|special\s+deal|opportunity)`,
				},
				WhyItMatters: "The TSR requires disclosure that the call is for sales purposes " +
					"before making the sales pitch.",
				RecommendedFix: "I'm calling today with a special offer for you...",
				LegalReference: "16 C.F.R. § 310.4(d)(2)",
				Enabled:        true,
			},
			{
				ID:          RuleProductDescription,
				Title:       "Missing Product/Service Description",
				Category:    model.CategoryDisclosure,
				Description: "Agent proceeded with pitch without describing what is being sold",
				Severity:    model.SeverityLow,
				WhyItMatters: "Consumers should understand what product or service is being offered " +
					"early in the call.",
				RecommendedFix: "The reason for my call is to tell you about our [product/service]...",
				LegalReference: "16 C.F.R. § 310.4(d)(3)",
				Enabled:        true,
			},
			{
				ID:          RuleConsentRevoked,
				Title:       "Consent Revocation Detected",
				Category:    model.CategoryConsent,
				Description: "Consumer appears to be revoking consent by reasonable means",
				Severity:    model.SeverityHigh,
				Triggers: []string{
					"i withdraw my consent",
					"i revoke my consent",
					"i take back my consent",
					"i no longer consent",
					"i didn't agree to this",
					"i never agreed",
					"i want to opt out",
					"opt me out",
					"unsubscribe me",
				},
				RegexPatterns: []string{
					`(?i)(withdraw|revoke|take\s+back|cancel)\s+(my\s+)?(consent|permission|authorization)`,
					`(?i)(opt|unsubscribe)\s+(me\s+)?out`,
					`(?i)(never|didn'?t)\s+(agree|consent|authorize)`,
				},
				WhyItMatters: "Under TCPA, consumers can revoke consent by any reasonable means. " +
					"Non-standard wording still constitutes valid revocation.",
				RecommendedFix: "I understand you'd like to revoke your consent. I'll process that right away " +
					"and you'll be removed from our calling list.",
				LegalReference: "47 C.F.R. § 64.1200(a)(7)(ii)",
				Enabled:        true,
			},
			{
				ID:          RuleCallbackNumber,
				Title:       "Missing Callback Number",
				Category:    model.CategoryIdentification,
				Description: "Agent did not provide callback number/address for consumer contact",
				Severity:    model.SeverityLow,
				RegexPatterns: []string{
					`(?i)(call\s+(us\s+)?back\s+at|reach\s+us\s+at|our\s+number\s+is|contact\s+us\s+at)`,
				},
				WhyItMatters: "Telemarketers must provide a means for consumers to reach the business, " +
					"typically a callback number.",
				RecommendedFix: "If you have any questions, you can reach us at [phone number].",
				LegalReference: "16 C.F.R. § 310.4(d)(7)",
				Enabled:        true,
			},
			{
				ID:               RulePrerecorded,
				Title:            "Prerecorded Voice Without Consent",
				Category:         model.CategoryPrerecorded,
				Description:      "Call using prerecorded/artificial voice without required prior express written consent",
				Severity:         model.SeverityHigh,
				RequiresMetadata: true,
				MetadataField:    "is_prerecorded",
				WhyItMatters: "TCPA requires prior express written consent for prerecorded telemarketing " +
					"calls to cell phones.",
				RecommendedFix: "Ensure written consent is obtained and documented before using " +
					"prerecorded messages for marketing.",
				LegalReference: "47 U.S.C. § 227(b)(1)(A)",
				Enabled:        true,
			},
			{
				ID:          RuleRecordingDisclosure,
				Title:       "Missing Recording Disclosure",
				Category:    model.CategoryRecordingDisclosure,
				Description: "Call is being recorded without disclosure (jurisdiction-dependent)",
				Severity:    model.SeverityMedium,
				RegexPatterns: []string{
					`(?i)(this\s+call\s+(is|may\s+be)\s+(being\s+)?recorded|call\s+recording|for\s+quality\s+(and\s+training\s+)?purposes)`,
				},
				WhyItMatters: "Some states require two-party consent for call recording. " +
					"This rule is jurisdiction-dependent and should be reviewed with counsel.",
				RecommendedFix: "This call may be recorded for quality and training purposes. " +
					"By continuing, you consent to this recording.",
				LegalReference: "State-specific wiretapping/recording consent laws",
				Enabled:        true,
				Optional:       true,
			},
		},
	}
}

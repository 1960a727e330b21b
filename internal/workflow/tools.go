package workflow

import (
	"slices"
	"strings"
)

// httpRequestType is the generic HTTP node whose target URL decides its label.
const httpRequestType = "n8n-nodes-base.httprequest"

const (
	labelExternalAPI  = "External API - Data Processing"
	labelHTTPFallback = "HTTP Request - External Service"
)

// toolPattern maps a lower-case substring to a "<Service> - <Capability>" label.
type toolPattern struct {
	match string
	label string
}

// nodeTypePatterns is matched against lower-cased node types, first match wins.
// More specific patterns must precede the generic ones they contain.
var nodeTypePatterns = []toolPattern{
	{"googlesheets", "Google Sheets - Spreadsheet Management"},
	{"googledrive", "Google Drive - File Storage"},
	{"googledocs", "Google Docs - Document Editing"},
	{"googlecalendar", "Google Calendar - Scheduling"},
	{"gmail", "Gmail - Email Automation"},
	{"googlegemini", "Google Gemini - AI Text Generation"},
	{"microsoftexcel", "Microsoft Excel - Spreadsheet Management"},
	{"microsoftoutlook", "Microsoft Outlook - Email Automation"},
	{"microsoftteams", "Microsoft Teams - Team Communication"},
	{"onedrive", "OneDrive - File Storage"},
	{"slack", "Slack - Team Communication"},
	{"discord", "Discord - Community Messaging"},
	{"telegram", "Telegram - Messaging"},
	{"whatsapp", "WhatsApp - Messaging"},
	{"twilio", "Twilio - SMS & Voice"},
	{"emailsend", "Email - Send Notifications"},
	{"emailreadimap", "Email - Inbox Monitoring"},
	{"lmchatopenai", "OpenAI - AI Text Generation"},
	{"embeddingsopenai", "OpenAI - Embeddings"},
	{"openai", "OpenAI - AI Text Generation"},
	{"lmchatanthropic", "Anthropic Claude - AI Text Generation"},
	{"anthropic", "Anthropic Claude - AI Text Generation"},
	{"lmchatollama", "Ollama - Local AI Models"},
	{"lmchatmistral", "Mistral AI - AI Text Generation"},
	{"lmchatgroq", "Groq - AI Inference"},
	{"agent", "AI Agent - Autonomous Task Execution"},
	{"chainllm", "LLM Chain - AI Processing"},
	{"vectorstorepinecone", "Pinecone - Vector Database"},
	{"vectorstoreqdrant", "Qdrant - Vector Database"},
	{"vectorstoresupabase", "Supabase - Vector Database"},
	{"supabase", "Supabase - Database"},
	{"postgres", "PostgreSQL - Database"},
	{"mysql", "MySQL - Database"},
	{"mongodb", "MongoDB - Database"},
	{"redis", "Redis - Cache & Data Store"},
	{"airtable", "Airtable - Database Management"},
	{"notion", "Notion - Knowledge Management"},
	{"github", "GitHub - Code Repository"},
	{"gitlab", "GitLab - DevOps Platform"},
	{"jira", "Jira - Issue Tracking"},
	{"trello", "Trello - Project Management"},
	{"asana", "Asana - Project Management"},
	{"clickup", "ClickUp - Project Management"},
	{"linear", "Linear - Issue Tracking"},
	{"hubspot", "HubSpot - CRM"},
	{"salesforce", "Salesforce - CRM"},
	{"pipedrive", "Pipedrive - CRM"},
	{"stripe", "Stripe - Payment Processing"},
	{"shopify", "Shopify - E-commerce"},
	{"woocommerce", "WooCommerce - E-commerce"},
	{"mailchimp", "Mailchimp - Email Marketing"},
	{"sendgrid", "SendGrid - Email Delivery"},
	{"twitter", "Twitter/X - Social Media"},
	{"linkedin", "LinkedIn - Professional Networking"},
	{"facebook", "Facebook - Social Media"},
	{"dropbox", "Dropbox - File Storage"},
	{"awss3", "AWS S3 - Cloud Storage"},
	{"aws", "AWS - Cloud Services"},
	{"rssfeedread", "RSS - Feed Reader"},
	{"scheduletrigger", "Schedule - Time-based Trigger"},
	{"cron", "Schedule - Time-based Trigger"},
	{"respondtowebhook", "Webhook - HTTP Response"},
	{"webhook", "Webhook - HTTP Trigger"},
}

// urlPatterns is matched against lower-cased HTTP request URLs, first match wins.
var urlPatterns = []toolPattern{
	// AI inference
	{"api.openai.com", "OpenAI - AI Text Generation"},
	{"api.anthropic.com", "Anthropic Claude - AI Text Generation"},
	{"generativelanguage.googleapis.com", "Google Gemini - AI Text Generation"},
	{"api.mistral.ai", "Mistral AI - AI Text Generation"},
	{"api.groq.com", "Groq - AI Inference"},
	{"api.cohere.ai", "Cohere - AI Language Models"},
	{"api.cohere.com", "Cohere - AI Language Models"},
	{"api.perplexity.ai", "Perplexity - AI Search"},
	{"api.together.xyz", "Together AI - AI Inference"},
	{"api.replicate.com", "Replicate - AI Model Hosting"},
	{"api-inference.huggingface.co", "Hugging Face - AI Inference"},
	{"huggingface.co", "Hugging Face - AI Models"},
	{"api.deepseek.com", "DeepSeek - AI Text Generation"},
	{"openrouter.ai", "OpenRouter - AI Model Routing"},
	{"api.elevenlabs.io", "ElevenLabs - AI Voice Generation"},
	{"api.stability.ai", "Stability AI - Image Generation"},
	{"api.assemblyai.com", "AssemblyAI - Speech Recognition"},
	{"api.deepgram.com", "Deepgram - Speech Recognition"},
	{"api.runwayml.com", "Runway - AI Video Generation"},
	{"api.pinecone.io", "Pinecone - Vector Database"},
	// Payments
	{"api.stripe.com", "Stripe - Payment Processing"},
	{"api.paypal.com", "PayPal - Payment Processing"},
	{"api-m.paypal.com", "PayPal - Payment Processing"},
	{"squareup.com", "Square - Payment Processing"},
	{"api.lemonsqueezy.com", "Lemon Squeezy - Payment Processing"},
	{"api.paddle.com", "Paddle - Payment Processing"},
	// CRM and sales
	{"api.hubapi.com", "HubSpot - CRM"},
	{"salesforce.com", "Salesforce - CRM"},
	{"api.pipedrive.com", "Pipedrive - CRM"},
	{"zohoapis.com", "Zoho - CRM"},
	{"api.close.com", "Close - CRM"},
	{"api.attio.com", "Attio - CRM"},
	{"api.apollo.io", "Apollo - Sales Intelligence"},
	{"api.hunter.io", "Hunter - Email Finder"},
	{"api.clearbit.com", "Clearbit - Data Enrichment"},
	// Email and marketing
	{"api.sendgrid.com", "SendGrid - Email Delivery"},
	{"api.mailgun.net", "Mailgun - Email Delivery"},
	{"api.resend.com", "Resend - Email Delivery"},
	{"api.postmarkapp.com", "Postmark - Email Delivery"},
	{"api.brevo.com", "Brevo - Email Marketing"},
	{"api.sendinblue.com", "Brevo - Email Marketing"},
	{"api.mailchimp.com", "Mailchimp - Email Marketing"},
	{"api.convertkit.com", "ConvertKit - Email Marketing"},
	{"api.klaviyo.com", "Klaviyo - Email Marketing"},
	{"api.activecampaign.com", "ActiveCampaign - Marketing Automation"},
	{"api.instantly.ai", "Instantly - Cold Email Outreach"},
	// Cloud platforms and data
	{"amazonaws.com", "AWS - Cloud Services"},
	{"googleapis.com/drive", "Google Drive - File Storage"},
	{"sheets.googleapis.com", "Google Sheets - Spreadsheet Management"},
	{"gmail.googleapis.com", "Gmail - Email Automation"},
	{"googleapis.com/calendar", "Google Calendar - Scheduling"},
	{"googleapis.com/youtube", "YouTube - Video Platform"},
	{"googleapis.com", "Google Cloud - Cloud Services"},
	{"graph.microsoft.com", "Microsoft Graph - Office 365 Integration"},
	{"azure.com", "Microsoft Azure - Cloud Services"},
	{"supabase.co", "Supabase - Database"},
	{"firebaseio.com", "Firebase - Realtime Database"},
	{"api.airtable.com", "Airtable - Database Management"},
	{"api.notion.com", "Notion - Knowledge Management"},
	{"api.cloudflare.com", "Cloudflare - Edge Platform"},
	{"api.vercel.com", "Vercel - Deployment Platform"},
	{"api.digitalocean.com", "DigitalOcean - Cloud Hosting"},
	// Developer tools
	{"api.github.com", "GitHub - Code Repository"},
	{"gitlab.com/api", "GitLab - DevOps Platform"},
	{"atlassian.net", "Atlassian - Jira & Confluence"},
	{"api.linear.app", "Linear - Issue Tracking"},
	{"api.trello.com", "Trello - Project Management"},
	{"app.asana.com", "Asana - Project Management"},
	{"api.clickup.com", "ClickUp - Project Management"},
	{"api.monday.com", "Monday.com - Work Management"},
	// Communication and social
	{"slack.com/api", "Slack - Team Communication"},
	{"hooks.slack.com", "Slack - Team Communication"},
	{"discord.com/api", "Discord - Community Messaging"},
	{"api.telegram.org", "Telegram - Messaging"},
	{"graph.facebook.com", "Facebook - Social Media"},
	{"api.twitter.com", "Twitter/X - Social Media"},
	{"api.x.com", "Twitter/X - Social Media"},
	{"api.linkedin.com", "LinkedIn - Professional Networking"},
	{"api.instagram.com", "Instagram - Social Media"},
	{"open.tiktokapis.com", "TikTok - Social Media"},
	{"oauth.reddit.com", "Reddit - Social Media"},
	{"api.twilio.com", "Twilio - SMS & Voice"},
	// Commerce
	{"myshopify.com", "Shopify - E-commerce"},
	{"api.gumroad.com", "Gumroad - Digital Sales"},
	// Scheduling
	{"api.calendly.com", "Calendly - Scheduling"},
	{"api.cal.com", "Cal.com - Scheduling"},
	// Scraping and search
	{"api.apify.com", "Apify - Web Scraping"},
	{"api.firecrawl.dev", "Firecrawl - Web Scraping"},
	{"serpapi.com", "SerpAPI - Search Results"},
	{"api.tavily.com", "Tavily - AI Search"},
	{"api.scrapingbee.com", "ScrapingBee - Web Scraping"},
	// Automation platforms
	{"hooks.zapier.com", "Zapier - Automation Platform"},
	{"hook.make.com", "Make - Automation Platform"},
	{"hook.integromat.com", "Make - Automation Platform"},
	{"n8n.cloud", "n8n - Automation Platform"},
}

// Tools returns the de-duplicated service labels for a graph's nodes. Unknown
// node types contribute nothing; unknown HTTP hosts degrade to a generic label.
// The result is sorted so repeated calls compare equal.
func Tools(nodes []Node) []string {
	seen := make(map[string]bool)
	for _, n := range nodes {
		for _, label := range nodeLabels(n) {
			seen[label] = true
		}
	}
	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	return labels
}

func nodeLabels(n Node) []string {
	nodeType := strings.ToLower(n.Type)
	var labels []string
	if label, ok := lookup(nodeTypePatterns, nodeType); ok {
		labels = append(labels, label)
	}
	if nodeType == httpRequestType {
		labels = append(labels, classifyURL(asString(n.Parameters["url"])))
	}
	return labels
}

// classifyURL labels an HTTP request target.
func classifyURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return labelHTTPFallback
	}
	if label, ok := lookup(urlPatterns, strings.ToLower(url)); ok {
		return label
	}
	return labelExternalAPI
}

func lookup(table []toolPattern, s string) (string, bool) {
	for _, p := range table {
		if strings.Contains(s, p.match) {
			return p.label, true
		}
	}
	return "", false
}

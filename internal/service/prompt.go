package service

import (
	"fmt"
	"strings"

	"github.com/liliang-cn/standbot/internal/domain"
)

const (
	maxPromptDocuments = 5
	maxDocumentText    = 4000
)

const ffdSystemPrompt = `You are the virtual assistant of Flooring Fair Days, a trade fair for the flooring industry.
You help visitors find exhibitors, their stand numbers, products and contact details.
Answer in the language of the question. Only use the information given in the context.
When you talk about a specific exhibitor, write its name in bold, like **Exhibitor Name**.
If the answer is not in the context, say so and point the visitor to the exhibitor list.
Answer in plain text. Never output HTML or code blocks.`

const abissSystemPrompt = `Je bent de virtuele assistent van Abiss, de vakbeurs voor automatisering, robotica en industriële software.
Je helpt bezoekers exposanten, standnummers, producten en contactgegevens te vinden.
Antwoord in de taal van de vraag. Gebruik alleen de informatie uit de context.
Schrijf de naam van een exposant waarover je praat in het vet, zoals **Naam Exposant**.
Staat het antwoord niet in de context, zeg dat dan en verwijs naar de exposantenlijst.
Antwoord in platte tekst. Gebruik nooit HTML of codeblokken.`

const artisanSystemPrompt = `You are the virtual assistant of Artisan, a fair for craftspeople, makers and artisanal food.
You help visitors find exhibitors, their stand numbers, what they make and how to reach them.
Answer in the language of the question. Only use the information given in the context.
When you talk about a specific exhibitor, write its name in bold, like **Exhibitor Name**.
If the answer is not in the context, say so and point the visitor to the exhibitor list.
Answer in plain text. Never output HTML or code blocks.`

// SystemPrompt returns the system prompt of website, defaulting to ffd
func SystemPrompt(website string) string {
	switch domain.NormalizeWebsite(website) {
	case domain.WebsiteAbiss:
		return abissSystemPrompt
	case domain.WebsiteArtisan:
		return artisanSystemPrompt
	default:
		return ffdSystemPrompt
	}
}

// promptInput is everything that goes into the user message of a turn
type promptInput struct {
	LastEntity string
	Visitor    *domain.Profile
	History    []domain.Message
	Documents  []*domain.Document
	ForcedURL  string
	Question   string
}

func buildPrompt(in promptInput) string {
	var sb strings.Builder

	if in.LastEntity != "" {
		fmt.Fprintf(&sb, "The visitor was last talking about: %s\n\n", in.LastEntity)
	}
	if in.Visitor != nil && in.Visitor.Name != "" {
		if in.Visitor.Company != "" {
			fmt.Fprintf(&sb, "Visitor: %s (%s)\n\n", in.Visitor.Name, in.Visitor.Company)
		} else {
			fmt.Fprintf(&sb, "Visitor: %s\n\n", in.Visitor.Name)
		}
	}

	if len(in.History) > 0 {
		sb.WriteString("Conversation history:\n")
		for _, m := range in.History {
			fmt.Fprintf(&sb, "%s - %s: %s\n", m.Timestamp.Format("15:04:05"), m.Speaker(), m.Text)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Context:\n")
	if len(in.Documents) == 0 {
		sb.WriteString("(no matching documents)\n")
	}
	for i, doc := range in.Documents {
		if i == maxPromptDocuments {
			break
		}
		writeDocument(&sb, doc)
	}

	if in.ForcedURL != "" {
		fmt.Fprintf(&sb, "\nFull exhibitor list: %s\n", in.ForcedURL)
	}
	fmt.Fprintf(&sb, "\nQuestion: %s", in.Question)

	return sb.String()
}

func writeDocument(sb *strings.Builder, doc *domain.Document) {
	fmt.Fprintf(sb, "Title: %s\n", doc.Title)
	if doc.URL != "" {
		fmt.Fprintf(sb, "URL: %s\n", doc.URL)
	}
	if doc.Description != "" {
		fmt.Fprintf(sb, "Description: %s\n", doc.Description)
	}
	if len(doc.StandNumbers) > 0 {
		fmt.Fprintf(sb, "Stand numbers: %s\n", strings.Join(doc.StandNumbers, ", "))
	}
	if len(doc.SocialLinks) > 0 {
		fmt.Fprintf(sb, "Social links: %s\n", strings.Join(doc.SocialLinks, ", "))
	}
	if doc.SourceType != "" {
		fmt.Fprintf(sb, "Source type: %s\n", doc.SourceType)
	}
	if doc.RawText != "" {
		text := doc.RawText
		if runes := []rune(text); len(runes) > maxDocumentText {
			text = string(runes[:maxDocumentText])
		}
		fmt.Fprintf(sb, "Content: %s\n", text)
	}
	sb.WriteString("---\n")
}

package email

import (
	"fmt"
	"strings"
)

type Message struct {
	Subject string
	Body    string
}

type RegistrationDetails struct {
	ClubName  string
	FirstName string
	Season    string
	Grade     string
}

type NewsletterDetails struct {
	ClubName       string
	Name           string
	UnsubscribeURL string
}

type SponsorshipDetails struct {
	ClubName    string
	CompanyName string
	ContactName string
	Email       string
	Phone       string
	Tier        string
	Message     string
}

func clubNameOrDefault(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "the club"
	}
	return name
}

func BuildRegistrationConfirmation(details RegistrationDetails) Message {
	club := clubNameOrDefault(details.ClubName)
	firstName := strings.TrimSpace(details.FirstName)
	if firstName == "" {
		firstName = "there"
	}

	lines := []string{
		fmt.Sprintf("Hi %s,", firstName),
		"",
		fmt.Sprintf("Thanks for registering with %s for the %s season.", club, strings.TrimSpace(details.Season)),
	}
	if grade := strings.TrimSpace(details.Grade); grade != "" {
		lines = append(lines, fmt.Sprintf("Requested grade: %s", grade))
	}
	lines = append(lines,
		"",
		"A committee member will be in touch about team placement and fees.",
	)

	return Message{
		Subject: fmt.Sprintf("Registration received - %s", club),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildNewsletterWelcome(details NewsletterDetails) Message {
	club := clubNameOrDefault(details.ClubName)
	greeting := "Hi,"
	if name := strings.TrimSpace(details.Name); name != "" {
		greeting = fmt.Sprintf("Hi %s,", name)
	}

	lines := []string{
		greeting,
		"",
		fmt.Sprintf("You're now subscribed to news from %s.", club),
		"Expect fixtures, results and club events in your inbox.",
	}
	if url := strings.TrimSpace(details.UnsubscribeURL); url != "" {
		lines = append(lines, "", fmt.Sprintf("Unsubscribe at any time: %s", url))
	}

	return Message{
		Subject: fmt.Sprintf("You're subscribed to %s news", club),
		Body:    strings.Join(lines, "\n"),
	}
}

// BuildSponsorshipNotification is sent to the club inbox.
func BuildSponsorshipNotification(details SponsorshipDetails) Message {
	tier := strings.TrimSpace(details.Tier)
	if tier == "" {
		tier = "Not specified"
	}
	phone := strings.TrimSpace(details.Phone)
	if phone == "" {
		phone = "Not provided"
	}

	lines := []string{
		"A new sponsorship enquiry was submitted.",
		"",
		fmt.Sprintf("Company: %s", strings.TrimSpace(details.CompanyName)),
		fmt.Sprintf("Contact: %s", strings.TrimSpace(details.ContactName)),
		fmt.Sprintf("Email: %s", strings.TrimSpace(details.Email)),
		fmt.Sprintf("Phone: %s", phone),
		fmt.Sprintf("Tier: %s", tier),
		"",
		strings.TrimSpace(details.Message),
	}

	return Message{
		Subject: fmt.Sprintf("Sponsorship enquiry - %s", strings.TrimSpace(details.CompanyName)),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildSponsorshipAcknowledgement(details SponsorshipDetails) Message {
	club := clubNameOrDefault(details.ClubName)
	contact := strings.TrimSpace(details.ContactName)
	if contact == "" {
		contact = "there"
	}

	lines := []string{
		fmt.Sprintf("Hi %s,", contact),
		"",
		fmt.Sprintf("Thanks for your interest in supporting %s.", club),
		fmt.Sprintf("We've received the enquiry from %s and will reply within a few days.", strings.TrimSpace(details.CompanyName)),
	}

	return Message{
		Subject: fmt.Sprintf("Thanks for your sponsorship enquiry - %s", club),
		Body:    strings.Join(lines, "\n"),
	}
}

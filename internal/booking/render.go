package booking

import (
	"fmt"
	"strings"
)

const notProvided = "Not provided"

// renderOptionList formats a numbered option list for display. Only the
// first maxDisplayedOptions entries are shown even when more are cached.
func renderOptionList(title string, options []Option) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s:**\n", title)

	limit := len(options)
	if limit > maxDisplayedOptions {
		limit = maxDisplayedOptions
	}
	for i := 0; i < limit; i++ {
		opt := options[i]
		fmt.Fprintf(&b, "**%d. %s**\n", i+1, opt.Name)
		for _, attr := range opt.Attrs {
			fmt.Fprintf(&b, "   - %s: %s\n", attr.Label, attr.Value)
		}
	}
	return b.String()
}

func displayOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// branchDisplay resolves the branch name for presentation, preferring the
// name captured at selection time over the options cache and the raw id.
func (s *State) branchDisplay() string {
	if s.BranchID == "" {
		return "Not selected"
	}
	if s.BranchName != "" {
		return s.BranchName
	}
	if name := optionName(s.BranchOptions, s.BranchID); name != "" {
		return name
	}
	return s.BranchID
}

func (s *State) serviceDisplay() string {
	if s.ServiceID == "" {
		return "Not selected"
	}
	if s.ServiceName != "" {
		return s.ServiceName
	}
	if name := optionName(s.ServiceOptions, s.ServiceID); name != "" {
		return name
	}
	return s.ServiceID
}

// renderSummary produces the full booking summary with the missing-field
// list and the fixed edit help block.
func renderSummary(s *State) string {
	var b strings.Builder
	b.WriteString("**Current booking information:**\n\n")
	fmt.Fprintf(&b, "- Customer: %s\n", displayOr(s.CustomerName, notProvided))
	fmt.Fprintf(&b, "- Phone: %s\n", displayOr(s.CustomerPhone, notProvided))
	fmt.Fprintf(&b, "- Branch: %s\n", s.branchDisplay())
	fmt.Fprintf(&b, "- Service: %s\n", s.serviceDisplay())
	fmt.Fprintf(&b, "- Date: %s\n", displayOr(s.Date, notProvided))
	fmt.Fprintf(&b, "- Time: %s\n", displayOr(s.Time, notProvided))
	fmt.Fprintf(&b, "- Number of people: %d\n", s.PartySize)

	if len(s.MissingFields) > 0 {
		b.WriteString("\n**Missing information:**\n")
		for _, f := range s.MissingFields {
			fmt.Fprintf(&b, "- %s\n", f.Label())
		}
	}

	b.WriteString("\n**How to make changes:**\n")
	b.WriteString("- Say 'edit name' to change your name\n")
	b.WriteString("- Say 'edit phone' to change your phone number\n")
	b.WriteString("- Say 'edit branch' to select a different branch\n")
	b.WriteString("- Say 'edit service' to select a different service\n")
	b.WriteString("- Say 'edit date' to change the date\n")
	b.WriteString("- Say 'edit time' to change the time\n")
	b.WriteString("- Say 'start over' to restart the booking\n")
	b.WriteString("- Say 'confirm' when everything looks correct\n")
	return b.String()
}

// renderConfirmDetails produces the pre-booking confirmation prompt.
func renderConfirmDetails(s *State) string {
	var b strings.Builder
	b.WriteString("**Please confirm your booking details:**\n\n")
	fmt.Fprintf(&b, "- Name: %s\n", displayOr(s.CustomerName, notProvided))
	fmt.Fprintf(&b, "- Phone: %s\n", displayOr(s.CustomerPhone, notProvided))
	fmt.Fprintf(&b, "- Branch: %s\n", s.branchDisplay())
	fmt.Fprintf(&b, "- Service: %s\n", s.serviceDisplay())
	fmt.Fprintf(&b, "- Date: %s\n", displayOr(s.Date, notProvided))
	fmt.Fprintf(&b, "- Time: %s\n", displayOr(s.Time, notProvided))
	fmt.Fprintf(&b, "- Number of people: %d\n\n", s.PartySize)

	if len(s.MissingFields) > 0 {
		labels := make([]string, 0, len(s.MissingFields))
		for _, f := range s.MissingFields {
			labels = append(labels, f.Label())
		}
		fmt.Fprintf(&b, "**The following information is still needed:** %s\n\n", strings.Join(labels, ", "))
		b.WriteString("Please provide the missing information so I can complete your booking.")
	} else {
		b.WriteString("If everything looks correct, please type 'confirm' to book your appointment.\n")
		b.WriteString("If you want to make changes, please let me know what you'd like to change.")
	}
	return b.String()
}

// renderConfirmation produces the post-booking success message.
func renderConfirmation(s *State, conf *Confirmation) string {
	var b strings.Builder
	b.WriteString("**Booking confirmed!**\n\n")
	if conf.BookingID != "" {
		fmt.Fprintf(&b, "- Booking ID: %s\n", conf.BookingID)
	}
	fmt.Fprintf(&b, "- Confirmation code: %s\n", conf.ConfirmationCode)
	fmt.Fprintf(&b, "- Customer: %s\n", s.CustomerName)
	fmt.Fprintf(&b, "- Phone: %s\n", s.CustomerPhone)
	fmt.Fprintf(&b, "- Branch: %s\n", s.branchDisplay())
	fmt.Fprintf(&b, "- Service: %s\n", s.serviceDisplay())
	fmt.Fprintf(&b, "- Date: %s\n", s.Date)
	fmt.Fprintf(&b, "- Time: %s\n\n", s.Time)
	b.WriteString("Thank you for booking with us! We look forward to seeing you.")
	return b.String()
}

const editOptionsText = `I can help you edit any of the following:
- Name - say 'edit name'
- Phone - say 'edit phone'
- Branch - say 'edit branch'
- Service - say 'edit service'
- Date - say 'edit date'
- Time - say 'edit time'

What would you like to change?`

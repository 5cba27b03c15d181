// Package notify delivers accepted-transfer notices to humans.
package notify

import (
	"context"
	"fmt"
)

// Transfer describes one accepted ownership transfer. Any field may be empty
// when the listing did not include it.
type Transfer struct {
	FileName           string
	FileURL            string
	PreviousOwnerName  string
	PreviousOwnerEmail string
}

// Nop discards notices. It is the notifier when no sink is configured.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, Transfer) error {
	return nil
}

// Describe renders t as a one-line Markdown message, linking the file name
// to its URL and showing the previous owner as "Name (email)".
func Describe(t Transfer) string {
	return fmt.Sprintf("Transferred ownership of %s from %s", fileRef(t), ownerRef(t))
}

func fileRef(t Transfer) string {
	switch {
	case t.FileName != "" && t.FileURL != "":
		return fmt.Sprintf("[%s](%s)", t.FileName, t.FileURL)
	case t.FileName != "":
		return t.FileName
	case t.FileURL != "":
		return t.FileURL
	default:
		return "a file"
	}
}

func ownerRef(t Transfer) string {
	switch {
	case t.PreviousOwnerName != "" && t.PreviousOwnerEmail != "":
		return fmt.Sprintf("%s (%s)", t.PreviousOwnerName, t.PreviousOwnerEmail)
	case t.PreviousOwnerName != "":
		return t.PreviousOwnerName
	case t.PreviousOwnerEmail != "":
		return t.PreviousOwnerEmail
	default:
		return "an unknown owner"
	}
}

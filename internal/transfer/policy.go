// Package transfer scans the files visible to the service account, decides
// which pending ownership transfers to accept, and accepts them.
package transfer

import (
	"github.com/ghive/ghive/internal/drive"
)

// Policy is the validated allow-list configuration a run enforces.
// At least one of UserEmails and RootFolders is non-empty; the config layer
// refuses to start otherwise.
type Policy struct {
	// ServiceAccountEmail is the grantee of the transfers to accept.
	ServiceAccountEmail string
	// UserEmails restricts transfers to files currently owned by one of these
	// users. Empty means any owner.
	UserEmails []string
	// RootFolders restricts transfers to files inside these folders or their
	// descendants. Empty means any folder.
	RootFolders []string
}

// fileFields is the projection requested for every scanned file.
const fileFields = "files(id, name, webViewLink, parents, permissions(id, displayName, emailAddress, role, pendingOwner))"

// FileQuery returns the listing query for candidate files: non-trashed,
// non-folder items, and when an owner allow-list is set, only files owned by
// one of those users. Folders are excluded because their ownership is never
// transferred.
func FileQuery(p Policy) drive.ListQuery {
	owners := make([]string, 0, len(p.UserEmails))
	for _, email := range p.UserEmails {
		if email != "" {
			owners = append(owners, drive.Literal(email)+" in owners")
		}
	}

	return drive.ListQuery{
		Q: drive.And(
			"trashed = false",
			"mimeType != "+drive.Literal(drive.FolderMimeType),
			drive.Or(owners...),
		),
		Fields: fileFields,
	}
}

package drive

// FolderMimeType is the MIME type Drive assigns to folders.
const FolderMimeType = "application/vnd.google-apps.folder"

// Permission roles used by ghive.
const (
	RoleOwner  = "owner"
	RoleWriter = "writer"
	RoleReader = "reader"
)

// File is the normalized subset of a Drive file resource that ghive reads.
// Fields absent from the requested projection are left at their zero value.
type File struct {
	ID          string
	Name        string
	WebViewLink string
	Parents     []string
	Permissions []Permission
}

// Permission is a single access grant on a file. PendingOwner is set on the
// grantee's permission while an ownership transfer awaits acceptance.
type Permission struct {
	ID           string
	DisplayName  string
	EmailAddress string
	Role         string
	PendingOwner bool
}

// FileList is one page of a files.list response. An empty NextPageToken
// means the listing is complete.
type FileList struct {
	Files         []File
	NextPageToken string
}

// ListQuery scopes a files.list call: Q is the Drive search expression and
// Fields the per-file projection (e.g. "files(id, parents)"). The cursor
// field is added by the client.
type ListQuery struct {
	Q      string
	Fields string
}

package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// listPageSize is the pageSize value for files.list requests.
// 1000 is the maximum the Drive API accepts.
const listPageSize = 1000

// cursorField is requested on every files.list call so pagination can
// continue regardless of the caller's projection.
const cursorField = "nextPageToken"

// fileResponse mirrors the Drive API file JSON.
// Callers see File, built by toFile().
type fileResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	WebViewLink string               `json:"webViewLink"`
	Parents     []string             `json:"parents"`
	Permissions []permissionResponse `json:"permissions"`
}

type permissionResponse struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	Role         string `json:"role"`
	PendingOwner bool   `json:"pendingOwner"`
}

type fileListResponse struct {
	Files         []fileResponse `json:"files"`
	NextPageToken string         `json:"nextPageToken"`
}

func (f *fileResponse) toFile() File {
	file := File{
		ID:          f.ID,
		Name:        f.Name,
		WebViewLink: f.WebViewLink,
		Parents:     f.Parents,
	}

	if len(f.Permissions) > 0 {
		file.Permissions = make([]Permission, 0, len(f.Permissions))
		for i := range f.Permissions {
			file.Permissions = append(file.Permissions, f.Permissions[i].toPermission())
		}
	}

	return file
}

func (p *permissionResponse) toPermission() Permission {
	return Permission{
		ID:           p.ID,
		DisplayName:  p.DisplayName,
		EmailAddress: p.EmailAddress,
		Role:         p.Role,
		PendingOwner: p.PendingOwner,
	}
}

// listFields returns the fields parameter for a files.list call: the
// caller's projection plus the cursor field.
func listFields(projection string) string {
	if projection == "" {
		return cursorField
	}

	return projection + ", " + cursorField
}

// ListFiles fetches a single page of files matching q. Pass an empty
// pageToken for the first page and the previous page's NextPageToken after.
func (c *Client) ListFiles(ctx context.Context, q ListQuery, pageToken string) (*FileList, error) {
	params := url.Values{}
	params.Set("q", q.Q)
	params.Set("fields", listFields(q.Fields))
	params.Set("pageSize", strconv.Itoa(listPageSize))

	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	resp, err := c.Do(ctx, http.MethodGet, "/files", params, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var flr fileListResponse
	if err := json.NewDecoder(resp.Body).Decode(&flr); err != nil {
		return nil, fmt.Errorf("drive: decoding file list response: %w", err)
	}

	files := make([]File, 0, len(flr.Files))
	for i := range flr.Files {
		files = append(files, flr.Files[i].toFile())
	}

	return &FileList{
		Files:         files,
		NextPageToken: flr.NextPageToken,
	}, nil
}

package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ErrMissingID is returned when a permission update is requested without a
// file or permission id.
var ErrMissingID = errors.New("drive: file id and permission id are required")

type updatePermissionRequest struct {
	Role string `json:"role"`
}

// AcceptOwnership promotes the pending-owner permission permissionID on
// fileID to owner. This is the acceptance side of a Drive ownership
// transfer: role=owner with transferOwnership=true.
func (c *Client) AcceptOwnership(ctx context.Context, fileID, permissionID string) error {
	return c.UpdatePermission(ctx, fileID, permissionID, RoleOwner, true)
}

// UpdatePermission changes the role of an existing permission.
// transferOwnership must be true when role is owner.
func (c *Client) UpdatePermission(ctx context.Context, fileID, permissionID, role string, transferOwnership bool) error {
	if fileID == "" || permissionID == "" {
		return ErrMissingID
	}

	path := fmt.Sprintf("/files/%s/permissions/%s", url.PathEscape(fileID), url.PathEscape(permissionID))

	params := url.Values{}
	if transferOwnership {
		params.Set("transferOwnership", "true")
	}

	body, err := json.Marshal(updatePermissionRequest{Role: role})
	if err != nil {
		return fmt.Errorf("drive: marshaling permission update: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPatch, path, params, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Drain to reuse the connection; the updated permission is not needed.
	if _, copyErr := io.Copy(io.Discard, resp.Body); copyErr != nil {
		return fmt.Errorf("drive: draining permission update response: %w", copyErr)
	}

	return nil
}

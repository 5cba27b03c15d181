package transfer

import (
	"context"
	"strings"

	"github.com/ghive/ghive/internal/drive"
	"github.com/ghive/ghive/internal/folders"
)

// Verdict is the outcome of evaluating one file.
type Verdict int

const (
	// VerdictEligible means the pending transfer should be accepted.
	VerdictEligible Verdict = iota
	// VerdictMalformed means the record lacks an id or permissions.
	VerdictMalformed
	// VerdictNoPendingTransfer means no transfer to the service account is pending.
	VerdictNoPendingTransfer
	// VerdictOutsideFolders means none of the file's parents is an allowed folder.
	VerdictOutsideFolders
)

func (v Verdict) String() string {
	switch v {
	case VerdictEligible:
		return "eligible"
	case VerdictMalformed:
		return "malformed"
	case VerdictNoPendingTransfer:
		return "no_pending_transfer"
	case VerdictOutsideFolders:
		return "outside_folders"
	default:
		return "unknown"
	}
}

// Decision is the result of evaluating a file. PermissionID and
// PreviousOwner are set only when Verdict is VerdictEligible.
type Decision struct {
	Verdict      Verdict
	PermissionID string
	// PreviousOwner is the file's current owner permission, if listed.
	PreviousOwner *drive.Permission
}

// Eligible reports whether the transfer should be accepted.
func (d Decision) Eligible() bool {
	return d.Verdict == VerdictEligible
}

// AllowedFolders yields the resolved allowed-folder set. *folders.Resolver
// implements it.
type AllowedFolders interface {
	Allowed(ctx context.Context) (folders.FolderSet, error)
}

// Filter evaluates files against a service account and folder policy.
// The folder set is requested only for files that already have a pending
// transfer, so runs with nothing to accept never list folders. A nil
// Folders means no folder restriction.
type Filter struct {
	ServiceAccountEmail string
	Folders             AllowedFolders
}

// Evaluate decides whether f is eligible. The only error is a failure to
// resolve the allowed folders.
func (flt *Filter) Evaluate(ctx context.Context, f drive.File) (Decision, error) {
	pending, d := matchPending(f, flt.ServiceAccountEmail)
	if pending == nil {
		return d, nil
	}

	if flt.Folders == nil {
		return checkFolders(f, pending, nil), nil
	}

	allowed, err := flt.Folders.Allowed(ctx)
	if err != nil {
		return Decision{}, err
	}

	return checkFolders(f, pending, allowed), nil
}

// Evaluate decides whether f is eligible given an already-resolved folder
// set. An empty allowed set means no folder restriction. It has no side
// effects: repeated calls on the same inputs return the same decision.
func Evaluate(f drive.File, serviceAccountEmail string, allowed folders.FolderSet) Decision {
	pending, d := matchPending(f, serviceAccountEmail)
	if pending == nil {
		return d
	}

	return checkFolders(f, pending, allowed)
}

// matchPending applies the record and pending-transfer checks. It returns
// the pending permission, or nil and the rejecting decision.
func matchPending(f drive.File, serviceAccountEmail string) (*drive.Permission, Decision) {
	if f.ID == "" || len(f.Permissions) == 0 {
		return nil, Decision{Verdict: VerdictMalformed}
	}

	for i := range f.Permissions {
		p := &f.Permissions[i]
		if p.PendingOwner && p.ID != "" && strings.EqualFold(p.EmailAddress, serviceAccountEmail) {
			return p, Decision{}
		}
	}

	return nil, Decision{Verdict: VerdictNoPendingTransfer}
}

func checkFolders(f drive.File, pending *drive.Permission, allowed folders.FolderSet) Decision {
	if !allowed.Unrestricted() && !allowed.ContainsAny(f.Parents) {
		return Decision{Verdict: VerdictOutsideFolders}
	}

	return Decision{
		Verdict:       VerdictEligible,
		PermissionID:  pending.ID,
		PreviousOwner: previousOwner(f.Permissions),
	}
}

func previousOwner(perms []drive.Permission) *drive.Permission {
	for i := range perms {
		if perms[i].Role == drive.RoleOwner {
			owner := perms[i]
			return &owner
		}
	}

	return nil
}

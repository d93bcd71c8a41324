package application

import "annotator/internal/domain"

// StaticPermissions grants unlinking wherever a loaded link is deletable and
// grants annotating unless the session is read-only
type StaticPermissions struct {
	ReadOnly bool
}

// ForIndex implements ports.PermissionModel
func (p StaticPermissions) ForIndex(index *domain.Index) domain.Permissions {
	return domain.LinkPermissions{Index: index, Annotate: !p.ReadOnly}
}

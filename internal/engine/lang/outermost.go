package lang

import (
	apperrors "facet/internal/core/errors"
)

// Outermost climbs the containment chain of decl to the declaration that
// sits directly in its file. The climb crosses member bodies: a class
// declared inside a method still belongs to the outermost class of that
// method's owner. Only a declaration whose chain tops out inside a
// file-level function or property has no outermost class, and asking for
// one is a caller error, not a corrupted tree.
func Outermost(decl *Declaration) (*Declaration, error) {
	cur := decl
	for {
		switch {
		case cur.Parent != nil:
			cur = cur.Parent
		case cur.Host != nil && cur.Host.Owner != nil:
			cur = cur.Host.Owner
		case cur.Host != nil:
			err := apperrors.New(apperrors.CodeValidationError,
				"local declaration has no outermost class and cannot be indexed by containment")
			err = apperrors.AddContext(err, apperrors.CtxDeclaration, decl.Name)
			err = apperrors.AddContext(err, apperrors.CtxPath, decl.Path())
			return nil, err
		default:
			return cur, nil
		}
	}
}

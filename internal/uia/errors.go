package uia

import (
	"errors"

	"github.com/mj1618/desktop-intent/internal/model"
)

// Translate maps facade errors onto the engine error taxonomy. Errors that
// already carry a kind pass through; unknown errors become InternalFault.
func Translate(err error, what string) error {
	if err == nil {
		return nil
	}
	var me *model.Error
	switch {
	case errors.As(err, &me):
		return err
	case errors.Is(err, ErrElementNotAvailable):
		return model.Wrap(model.KindStaleReference, err, "%s: element is no longer in the tree; re-query it", what)
	case errors.Is(err, ErrPatternUnavailable):
		return model.Wrap(model.KindUnsupportedCapability, err, "%s", what)
	case errors.Is(err, ErrUnsupported):
		return model.Wrap(model.KindUnsupportedCapability, err, "%s", what)
	default:
		return model.Wrap(model.KindInternalFault, err, "%s", what)
	}
}

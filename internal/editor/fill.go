package editor

import (
	"fmt"

	"github.com/matthewbaird/inplace/internal/types"
)

// Fill enters value into a mounted editor the way a user would: typing for
// text and date, choosing for select, setting the toggle for boolean.
func Fill(e Editor, value string) error {
	switch ed := e.(type) {
	case *Date:
		ed.SetText(value)
	case *Text:
		ed.SetText(value)
	case *Select:
		if err := ed.Choose(value); err != nil {
			if lerr := ed.ChooseLabel(value); lerr != nil {
				return err
			}
		}
	case *Boolean:
		b, ok := types.ParseBool(value)
		if !ok {
			return fmt.Errorf("boolean editor: %q is not a boolean", value)
		}
		ed.Set(b)
	default:
		if setter, ok := e.(interface{ SetText(string) }); ok {
			setter.SetText(value)
			return nil
		}
		return fmt.Errorf("editor %T cannot be filled", e)
	}
	return nil
}

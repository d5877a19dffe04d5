package gallery

import (
	"errors"
	"fmt"
)

var (
	// ErrTemplateNotFound means template page could not be located.
	ErrTemplateNotFound = errors.New("template page not found")
	// ErrTemplateEmpty means template page exists but has no content. It is
	// also ErrTemplateNotFound.
	ErrTemplateEmpty = fmt.Errorf("%w: content is empty or unreadable", ErrTemplateNotFound)
	// ErrEntryNotFound is returned when no page has requested path.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrEmptyName is returned when new character has blank name.
	ErrEmptyName = errors.New("character name is required")
)
